package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// StockMovement is one row of the inventory ledger. On-hand stock is the sum
// of IN rows minus the sum of OUT rows; rows are append-only.
type StockMovement struct {
	ID        uint      `gorm:"primaryKey"`
	TenantID  uint      `gorm:"index:idx_stock_movements_tenant_item;not null"`
	ItemID    uuid.UUID `gorm:"type:uuid;index:idx_stock_movements_tenant_item;not null"`
	Item      Item
	Type      MovementType    `gorm:"size:3;not null"`
	Quantity  decimal.Decimal `gorm:"type:numeric(18,4);not null"` // always positive
	Note      string          `gorm:"size:500"`
	CreatedBy uint            `gorm:"not null"`
	CreatedAt time.Time
}
