package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restoran-backend/internal/activitylog"
	"restoran-backend/internal/audit"
	"restoran-backend/internal/config"
	"restoran-backend/internal/database"
	"restoran-backend/internal/idempotency"
	"restoran-backend/internal/inventory"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, warnings, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "restoran-audit"}).Error(context.Background(), "config.load", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "restoran-audit",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	ctx := context.Background()
	for _, w := range warnings {
		logg.Warn(logg.WithField(ctx, "warning", string(w)), "config.warning")
	}

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "server.exit", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		sqlDB, err := db.SQL()
		if err != nil {
			return err
		}
		if err := database.Migrate(ctx, sqlDB, "up"); err != nil {
			return err
		}
		logg.Info(ctx, "database.migrated")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	auditMetrics := metrics.NewAudit(reg)

	activity := activitylog.NewDispatcher(db, logg, auditMetrics, cfg.Audit.ActivityBuffer)

	var idem fiber.Handler
	if cfg.Redis.URL != "" {
		store, err := idempotency.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer store.Close()
		idem = idempotency.Middleware(store, cfg.Redis.IdempotencyTTL, logg)
		logg.Info(ctx, "idempotency.enabled")
	}

	ledger := inventory.NewLedger()
	svc := audit.NewService(db, ledger, audit.Options{
		BulkTimeout: cfg.Audit.BulkTimeout,
		Activity:    activity,
		Metrics:     auditMetrics,
		Logger:      logg,
	})

	app := newApp(deps{
		cfg:      cfg,
		log:      logg,
		db:       db,
		ledger:   ledger,
		audit:    svc,
		activity: activity,
		idem:     idem,
		gatherer: reg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(logg.WithField(gctx, "port", cfg.HTTPPort), "server.listen")
		return app.Listen(":" + cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := app.ShutdownWithContext(shutdownCtx)
		if cerr := activity.Close(shutdownCtx); cerr != nil {
			err = errors.Join(err, cerr)
		}
		logg.Info(shutdownCtx, "server.stopped")
		return err
	})
	return g.Wait()
}
