package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/userdeck/backend/internal/handlers"
)

func Setup(
	app *fiber.App,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	users := api.Group("/users")

	// search and export must be registered before /:id, otherwise both
	// would be captured as an identifier value
	users.Get("/search", userHandler.SearchUsers)
	users.Get("/export", userHandler.ExportUsers)

	users.Get("/", userHandler.ListUsers)
	users.Post("/", userHandler.CreateUser)

	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)
}
