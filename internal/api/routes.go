package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/middleware"
)

// NewServer builds the fiber app with every route registered
func NewServer(cfg *config.Config, svc Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "postgen",
		ErrorHandler: middleware.ErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: fetchTimeout,
	})

	SetupRoutes(app, NewHandlers(svc), cfg)
	return app
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers, cfg *config.Config) {
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)
	api.Get("/content", middleware.ValidateQuery[contentQuery](), handlers.GetContent)
	api.Get("/stats", middleware.ValidateQuery[statsQuery](), handlers.GetStats)

	drafts := api.Group("/drafts")
	{
		drafts.Get("", middleware.ValidateQuery[draftsQuery](), handlers.ListDrafts)
		drafts.Get("/:id", handlers.GetDraft)
	}

	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	{
		admin.Post("/fetch", handlers.Fetch)
		admin.Post("/drafts", middleware.ValidateBody[generateBody](), handlers.CreateDraft)
		admin.Post("/drafts/:id/posted", middleware.ValidateBody[postedBody](), handlers.MarkPosted)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
