// Package internal contains core application functionality
package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"courselytics/internal/config"
	"courselytics/internal/http"
)

// publicCORSConfig is the standard CORS configuration for public endpoints.
// Tracking and geo lookups are called cross-origin from course pages, so
// the setup is deliberately permissive.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountRoutes registers every endpoint on the fiber app. Rate limiting only
// applies in production; in development and test it would interfere with
// rapid requests from the same address.
func MountRoutes(app *fiber.App, cfg *config.Config, handlers *http.Handlers) {
	conditionalRateLimiter := func(limit fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limit(c)
			}
			return c.Next()
		}
	}

	// 70/min per IP handles legitimate tracking traffic while capping abuse.
	publicRateLimiter := conditionalRateLimiter(limiter.New(limiter.Config{
		Max:        70,
		Expiration: time.Minute,
	}))

	app.Get("/health", handlers.HealthAction)

	api := app.Group("/api/v1", cors.New(publicCORSConfig), publicRateLimiter)
	api.Get("/geo", handlers.GeoAction)
	api.Post("/track", handlers.TrackPageViewAction)
	api.Post("/track/duration", handlers.TrackDurationAction)
	api.Post("/aggregate", handlers.AggregateAction)
}
