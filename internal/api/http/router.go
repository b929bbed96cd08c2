package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Complaints        *handlers.ComplaintsHandler
	Admin             *handlers.AdminHandler
	Chat              *handlers.ChatHandler
	Uploads           *handlers.UploadsHandler
	SessionMiddleware *auth.SessionMiddleware
	Metrics           fiber.Handler
	MetricsPath       string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, cfg.Metrics)
	}

	api := app.Group("/api")
	api.Post("/submit_complaint", cfg.Complaints.Submit)
	api.Post("/track_complaint", cfg.Complaints.Track)
	api.Post("/chat", cfg.Chat.Chat)

	admin := api.Group("/admin")
	admin.Post("/login", cfg.Admin.Login)
	admin.Post("/logout", cfg.Admin.Logout)

	protected := admin.Group("", cfg.SessionMiddleware.Handle, auth.RequireAdmin())
	protected.Get("/session", cfg.Admin.Session)
	protected.Get("/complaints", cfg.Admin.ListComplaints)
	protected.Get("/complaints/:id", cfg.Admin.GetComplaint)
	protected.Post("/update_status", cfg.Admin.UpdateStatus)
	protected.Get("/departments", cfg.Admin.ListDepartments)
	protected.Get("/reports", cfg.Admin.Reports)

	app.Get("/uploads/:filename", cfg.Uploads.Serve)
}
