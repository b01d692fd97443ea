package handlers

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/media"
)

// Index renders the single-page shell; the browser app talks to /api.
func Index(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{"ApiBase": "/api", "Title": "Storefront"})
}

// Uploads serves stored product images. Encoded or raw traversal attempts
// answer 404 and are logged.
func Uploads(store *media.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("*")
		lower := strings.ToLower(name)
		if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": name})
			return c.SendStatus(fiber.StatusNotFound)
		}
		p, ok := store.Path(name)
		if !ok {
			applog.Security(c, "media.traversal.block", map[string]any{"path": name})
			return c.SendStatus(fiber.StatusNotFound)
		}
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(p, false)
	}
}
