package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/karsaku/session-gate/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Session *handlers.SessionHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	sessionGroup := app.Group("/session")
	sessionGroup.Get("/", cfg.Session.Get)
	sessionGroup.Get("/screens/:screen", cfg.Session.Screen)
	sessionGroup.Post("/login", cfg.Session.Login)
	sessionGroup.Post("/professional/login", cfg.Session.LoginProfessional)
	sessionGroup.Post("/onboarding", cfg.Session.SubmitOnboarding)
	sessionGroup.Post("/logout", cfg.Session.Logout)
}
