package audit

import (
	"restoran-backend/internal/auth"
	"restoran-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the audit endpoints on an authenticated router.
// idem guards the endpoints that must not be applied twice; nil disables it.
func RegisterRoutes(r fiber.Router, svc *Service, idem fiber.Handler) {
	if idem == nil {
		idem = func(c *fiber.Ctx) error { return c.Next() }
	}
	managers := auth.RequireRole(models.RoleAdmin, models.RoleManager)

	g := r.Group("/audit")

	g.Get("/cycles", ListCyclesHandler(svc))
	g.Get("/cycles/:id", GetCycleHandler(svc))
	g.Get("/cycles/:id/discrepancy-report", ReportHandler(svc))
	g.Post("/cycles", managers, CreateCycleHandler(svc))
	g.Post("/cycles/:id/start", managers, StartCycleHandler(svc))
	g.Post("/cycles/:id/complete", managers, CompleteCycleHandler(svc))
	g.Post("/cycles/:id/cancel", managers, CancelCycleHandler(svc))

	g.Post("/entries", AddEntryHandler(svc))
	g.Post("/entries/bulk", idem, AddBulkEntriesHandler(svc))
	g.Post("/cycles/:id/entries/import", ImportEntriesHandler(svc))
	g.Post("/entries/:id/apply-correction", managers, idem, ApplyCorrectionHandler(svc))
}
