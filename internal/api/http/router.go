package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/axis-ops/ticket-service/internal/api/http/handlers"
	"github.com/axis-ops/ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Data           *handlers.DataHandler
	Priority       *handlers.PriorityHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Post("/import", cfg.Data.ImportCSV)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/approve", auth.RequirePermission(auth.Role.CanApprove), cfg.Tickets.Approve)
	tickets.Post("/:id/start", cfg.Tickets.Start)
	tickets.Post("/:id/complete", cfg.Tickets.Complete)
	tickets.Post("/:id/sync", cfg.Tickets.Sync)
	tickets.Delete("/:id", auth.RequirePermission(auth.Role.CanDelete), cfg.Tickets.Delete)

	api.Get("/priority/model", cfg.Priority.Model)
	api.Post("/priority/preview", cfg.Priority.Preview)

	api.Get("/audit", cfg.Data.AuditLog)
	api.Get("/exports/summary.csv", cfg.Data.ExportSummary)
	api.Get("/exports/jira.csv", cfg.Data.ExportJira)
	api.Post("/exports/email", cfg.Data.EmailExport)
}
