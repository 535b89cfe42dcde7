package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	SLA    *handlers.SLAHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	slaGroup := app.Group("/tickets/:id/sla")
	slaGroup.Post("/assign", cfg.SLA.Assign)
	slaGroup.Get("/status", cfg.SLA.Status)

	eventsGroup := slaGroup.Group("/events")
	eventsGroup.Post("/status-change", cfg.SLA.StatusChange)
	eventsGroup.Post("/first-response", cfg.SLA.FirstResponse)
	eventsGroup.Post("/resolution", cfg.SLA.Resolution)
	eventsGroup.Post("/customer-reply", cfg.SLA.CustomerReply)
	eventsGroup.Post("/priority-change", cfg.SLA.PriorityChange)
}
