package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/vuln-remediation/internal/api/http/handlers"
	"github.com/spec-kit/vuln-remediation/internal/auth"
	"github.com/spec-kit/vuln-remediation/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Summary        *handlers.SummaryHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if reg := cfg.Metrics.Registry(); reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	pteams := api.Group("/pteams/:pteamID", auth.RequirePTeamMember("pteamID"))
	pteams.Get("/summary/packages", cfg.Summary.PackageSummary)

	tickets := api.Group("/tickets/:ticketID")
	tickets.Get("", cfg.Tickets.GetTicket)
	tickets.Get("/actions", cfg.Tickets.ListActions)
	tickets.Get("/action-logs", cfg.Tickets.ListActionLogs)
	tickets.Put("/status", cfg.Tickets.UpdateStatus)
	tickets.Put("/assignees", cfg.Tickets.UpdateAssignees)
	tickets.Put("/safety-impact", cfg.Tickets.UpdateSafetyImpact)
}
