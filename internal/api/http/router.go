package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Services       *handlers.ServicesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	BanGate        *auth.BanGate
	Users          auth.UserLookup
	// Metrics is served at /metrics when set.
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/phone/send-code", cfg.Auth.SendCode)
	authGroup.Post("/phone/verify", cfg.Auth.VerifyPhone)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.BanGate.Handle, cfg.Auth.Me)

	services := api.Group("/services", cfg.AuthMiddleware.Handle, cfg.BanGate.Handle)
	services.Post("", cfg.Services.Create)
	services.Get("", cfg.Services.List)
	services.Get("/active", cfg.Services.Active)
	services.Delete("/:id", cfg.Services.Cancel)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin(cfg.Users))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Put("/users/:id/ban", cfg.Admin.SetBan)
	admin.Get("/services", cfg.Admin.ListServices)
	admin.Put("/services/:id", cfg.Admin.UpdateService)
	admin.Delete("/services/:id", cfg.Admin.DeleteService)
}
