package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "storefront/internal/log"
)

type AppConfig struct {
	TemplatesDir string
	StaticDir    string
	CORSOrigins  string
	BodyLimit    int
	// requests per minute per IP across the API; 0 means 120
	RateLimit int
	// login attempts per 10 minutes per IP; 0 means 5
	LoginLimit int
	// Quiet drops the per-request access log line
	Quiet bool
}

// NewApp builds the fiber application with middleware and every route.
func NewApp(d *Deps, ac AppConfig) *fiber.App {
	if ac.TemplatesDir == "" {
		ac.TemplatesDir = "./web/templates"
	}
	if ac.StaticDir == "" {
		ac.StaticDir = "./web/static"
	}
	if ac.RateLimit == 0 {
		ac.RateLimit = 120
	}
	if ac.LoginLimit == 0 {
		ac.LoginLimit = 5
	}
	if ac.BodyLimit == 0 {
		ac.BodyLimit = 26 << 20
	}

	app := fiber.New(fiber.Config{
		Views:        html.New(ac.TemplatesDir, ".html"),
		ErrorHandler: ErrorHandler,
		BodyLimit:    ac.BodyLimit,
	})

	app.Use(requestid.New())
	if !ac.Quiet {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	app.Use(helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "unsafe-none"}))
	if ac.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: ac.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + IdempotencyHeader,
		}))
	}
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	app.Use(limiter.New(limiter.Config{
		Max:        ac.RateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return !strings.HasPrefix(c.Path(), "/api/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.hit", nil)
			return message(c, fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))

	Register(app, d, ac)
	return app
}

// Register mounts the routes on app.
func Register(app *fiber.App, d *Deps, ac AppConfig) {
	loginLimiter := limiter.New(limiter.Config{
		Max:        ac.LoginLimit,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return message(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
		},
	})
	user := RequireUser(d.Auth)
	admin := RequireAdmin(d.Auth)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", d.AuthHandler.Register)
	auth.Post("/login", loginLimiter, d.AuthHandler.Login)
	auth.Post("/admin/login", loginLimiter, d.AuthHandler.AdminLogin)
	auth.Post("/admin/create", admin, d.AuthHandler.CreateAdmin)
	auth.Get("/profile", user, d.AuthHandler.Profile)

	products := api.Group("/products")
	products.Get("/", d.ProductHandler.List)
	products.Get("/categories/list", d.ProductHandler.Categories)
	products.Get("/admin/products", admin, d.ProductHandler.ListOwn)
	products.Get("/:id", d.ProductHandler.Get)
	products.Post("/", admin, d.ProductHandler.Create)
	products.Put("/:id", admin, d.ProductHandler.Update)
	products.Delete("/:id", admin, d.ProductHandler.Delete)

	users := api.Group("/users", user)
	users.Get("/cart", d.CartHandler.View)
	users.Post("/cart", d.CartHandler.Add)
	users.Put("/cart/:cartId", d.CartHandler.Update)
	users.Delete("/cart/:cartId", d.CartHandler.Remove)
	users.Delete("/cart", d.CartHandler.Clear)
	users.Post("/checkout", d.OrderHandler.PlaceOrder)
	users.Get("/orders", d.OrderHandler.History)
	users.Get("/orders/:id", d.OrderHandler.Detail)

	adm := api.Group("/admin", admin)
	adm.Get("/orders", d.AdminHandler.ListOrders)
	adm.Put("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)

	api.Use(func(c *fiber.Ctx) error {
		return message(c, fiber.StatusNotFound, "Route not found")
	})

	app.Get("/uploads/*", Uploads(d.Media))
	app.Static("/static", ac.StaticDir)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}
	app.Get("/", Index)
	app.Use(func(c *fiber.Ctx) error {
		return message(c, fiber.StatusNotFound, "Route not found")
	})
}
