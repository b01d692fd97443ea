package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate stores the caller's identity in Locals. When it reports false
// the 401 response has already been written.
func authenticate(c *fiber.Ctx, auth TokenVerifier) (domain.Identity, bool) {
	if id, ok := c.Locals(applog.IdentityKey).(domain.Identity); ok {
		return id, true
	}
	tok := bearer(c)
	if tok == "" {
		applog.Security(c, "auth.token.missing", nil)
		_ = message(c, fiber.StatusUnauthorized, "No token provided")
		return domain.Identity{}, false
	}
	id, err := auth.Verify(tok)
	if err != nil {
		applog.Security(c, "auth.token.invalid", nil)
		_ = message(c, fiber.StatusUnauthorized, "Invalid or expired token")
		return domain.Identity{}, false
	}
	c.Locals(applog.IdentityKey, id)
	return id, true
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(auth TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := authenticate(c, auth); !ok {
			return nil
		}
		return c.Next()
	}
}

// RequireAdmin additionally requires the admin role.
func RequireAdmin(auth TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		if !id.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return message(c, fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

func identity(c *fiber.Ctx) domain.Identity {
	id, _ := c.Locals(applog.IdentityKey).(domain.Identity)
	return id
}
