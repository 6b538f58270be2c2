// Package audit runs periodic inventory audits: cycle lifecycle, count
// ingestion, discrepancy reporting and correction posting into the ledger.
package audit

import (
	"context"
	"time"

	"restoran-backend/internal/activitylog"
	"restoran-backend/internal/database"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/metrics"
	"restoran-backend/internal/models"

	"github.com/google/uuid"
	"github.com/lucsky/cuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tolerance is the smallest absolute discrepancy that counts as one.
var Tolerance = decimal.RequireFromString("0.01")

const defaultBulkTimeout = 30 * time.Second

// StockLedger is the inventory collaborator. Methods run on the given handle
// so they join the caller's transaction.
type StockLedger interface {
	ActiveItem(ctx context.Context, db *gorm.DB, tenantID uint, itemID uuid.UUID) (*models.Item, error)
	ActiveItems(ctx context.Context, db *gorm.DB, tenantID uint) ([]models.Item, error)
	OnHand(ctx context.Context, db *gorm.DB, tenantID uint, itemID uuid.UUID) (decimal.Decimal, error)
	Append(ctx context.Context, db *gorm.DB, m *models.StockMovement) error
}

// Actor is the authenticated user an operation runs on behalf of.
type Actor struct {
	UserID   uint
	TenantID uint
	Name     string
}

type Options struct {
	BulkTimeout time.Duration
	Activity    activitylog.Recorder
	Metrics     *metrics.Audit
	Logger      *logger.Logger
}

type Service struct {
	db          *database.Client
	ledger      StockLedger
	activity    activitylog.Recorder
	metrics     *metrics.Audit
	log         *logger.Logger
	bulkTimeout time.Duration

	now   func() time.Time
	newID func() string
}

func NewService(db *database.Client, ledger StockLedger, opts Options) *Service {
	if opts.BulkTimeout <= 0 {
		opts.BulkTimeout = defaultBulkTimeout
	}
	if opts.Activity == nil {
		opts.Activity = activitylog.Discard{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Service{
		db:          db,
		ledger:      ledger,
		activity:    opts.Activity,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		bulkTimeout: opts.BulkTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       cuid.New,
	}
}

// HasDiscrepancy reports whether d is outside the tolerance band.
func HasDiscrepancy(d decimal.Decimal) bool {
	return d.Abs().GreaterThan(Tolerance)
}

func (s *Service) record(ctx context.Context, actor Actor, entityType, entityID string, action models.ActivityAction, desc string, before, after any) {
	s.activity.Record(ctx, activitylog.Entry{
		TenantID:    actor.TenantID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
