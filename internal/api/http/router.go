package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-intake/internal/api/http/handlers"
	"github.com/spec-kit/civic-intake/internal/auth"
	"github.com/spec-kit/civic-intake/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	SMS            *handlers.SMSHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	app.Post("/sms/webhook", cfg.SMS.Webhook)

	issues := app.Group("/issues")
	issues.Post("", cfg.Issues.Submit)
	issues.Get("", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.Issues.List)
	issues.Get("/:ticketId", cfg.Issues.Get)
	issues.Patch("/:ticketId/status", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.Issues.UpdateStatus)
	issues.Post("/:ticketId/completion", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Issues.MarkCompletion)
	issues.Post("/:ticketId/photo", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Issues.UploadPhoto)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/me", auth.RequireAnyRole(), cfg.Users.Me)
	users.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Users.Create)
}
