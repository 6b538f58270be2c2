package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditEntry holds one physical count of an item inside a cycle. There is at
// most one entry per (cycle, item); recounting overwrites it until a correction
// has been applied.
type AuditEntry struct {
	ID           string `gorm:"size:32;primaryKey"`
	AuditCycleID string `gorm:"size:32;not null;uniqueIndex:idx_audit_entries_cycle_item"`
	AuditCycle   *AuditCycle
	TenantID     uint      `gorm:"index;not null"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_audit_entries_cycle_item"`
	Item         Item

	CountedQuantity decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	SystemQuantity  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Discrepancy     decimal.Decimal `gorm:"type:numeric(18,4);not null"` // counted - system
	Reason          *string         `gorm:"size:500"`

	CorrectionApplied bool  `gorm:"not null;default:false"`
	CorrectionEntryID *uint // StockMovement.ID

	CountedBy uint      `gorm:"not null"`
	CountedAt time.Time `gorm:"not null"`
	CreatedBy uint      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
