package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/ai-ticket-assistant/internal/api/http/handlers"
	"github.com/deskflow/ai-ticket-assistant/internal/auth"
	"github.com/deskflow/ai-ticket-assistant/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	authGroup.Get("/users", cfg.AuthMiddleware.Handle, adminOnly, cfg.Auth.ListUsers)
	authGroup.Post("/update-user", cfg.AuthMiddleware.Handle, adminOnly, cfg.Auth.UpdateUser)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)

	app.Use(NotFound)
}
