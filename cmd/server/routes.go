package main

import (
	"strings"

	"restoran-backend/internal/activitylog"
	"restoran-backend/internal/audit"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/config"
	"restoran-backend/internal/database"
	"restoran-backend/internal/inventory"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.Client
	ledger   *inventory.Ledger
	audit    *audit.Service
	activity activitylog.Recorder
	idem     fiber.Handler
	gatherer prometheus.Gatherer
}

func newApp(d deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "restoran-audit",
		ErrorHandler: response.ErrorHandler(d.log),
	})

	corsOrigins := strings.Split(d.cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(d.log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := d.db.Ping(c.UserContext()); err != nil {
			return err
		}
		return response.OK(c, "ok", nil)
	})
	if d.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(d.db, d.cfg.JWTSecret, d.cfg.JWTTTL))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(d.cfg.JWTSecret, d.log))
	managers := auth.RequireRole(models.RoleAdmin, models.RoleManager)

	protected.Get("/auth/me", auth.MeHandler(d.db))

	// Catalog and ledger
	protected.Get("/inventory/items", inventory.ListItemsHandler(d.db))
	protected.Post("/inventory/items", managers, inventory.CreateItemHandler(d.db, d.activity))
	protected.Post("/inventory/movements", inventory.CreateMovementHandler(d.db, d.ledger, d.activity))
	protected.Get("/inventory/stock", inventory.ListStockHandler(d.db, d.ledger))

	// Audit cycles, counts and corrections
	audit.RegisterRoutes(protected, d.audit, d.idem)

	protected.Get("/activity-logs", managers, activitylog.ListHandler(d.db))

	return app
}
