package inventory

import (
	"context"
	"errors"
	"fmt"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuantityScale is the number of decimal places kept for stock quantities.
const QuantityScale = 4

// MaxQuantity is the exclusive upper bound of a numeric(18,4) quantity column.
var MaxQuantity = decimal.New(1, 14)

// QuantityInRange reports whether q fits the quantity columns.
func QuantityInRange(q decimal.Decimal) bool {
	return q.Abs().LessThan(MaxQuantity)
}

const onHandExpr = "COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)"

// Ledger reads and appends stock movements. Every method takes the handle to
// run on so callers can keep reads and writes inside one transaction.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

// ActiveItem loads an item of the tenant's catalog, failing with NotFound when
// it does not exist or has been deactivated.
func (l *Ledger) ActiveItem(ctx context.Context, db *gorm.DB, tenantID uint, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND is_active = ?", itemID, tenantID, true).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("کالا یافت نشد یا غیرفعال است").WithContext("item_id", itemID.String())
	}
	if err != nil {
		return nil, apperr.Internal(err, "")
	}
	return &item, nil
}

// ActiveItems lists the tenant's active catalog ordered by name.
func (l *Ledger) ActiveItems(ctx context.Context, db *gorm.DB, tenantID uint) ([]models.Item, error) {
	var items []models.Item
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, apperr.Internal(err, "")
	}
	return items, nil
}

// OnHand returns Σ IN − Σ OUT over the tenant's movements for the item.
func (l *Ledger) OnHand(ctx context.Context, db *gorm.DB, tenantID uint, itemID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select(onHandExpr).
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, apperr.Internal(fmt.Errorf("on hand %s: %w", itemID, err), "")
	}
	return total.Round(QuantityScale), nil
}

// OnHandAll returns the on-hand quantity of every item with movements.
func (l *Ledger) OnHandAll(ctx context.Context, db *gorm.DB, tenantID uint) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("item_id, "+onHandExpr).
		Where("tenant_id = ?", tenantID).
		Group("item_id").
		Rows()
	if err != nil {
		return nil, apperr.Internal(err, "")
	}
	defer rows.Close()

	out := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var (
			id    uuid.UUID
			total decimal.Decimal
		)
		if err := rows.Scan(&id, &total); err != nil {
			return nil, apperr.Internal(err, "")
		}
		out[id] = total.Round(QuantityScale)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "")
	}
	return out, nil
}

// Append writes one movement. Quantities are stored positive; the type
// carries the direction.
func (l *Ledger) Append(ctx context.Context, db *gorm.DB, m *models.StockMovement) error {
	if !m.Type.Valid() {
		return apperr.Validation("نوع حرکت نامعتبر است").WithField("type", "باید IN یا OUT باشد")
	}
	m.Quantity = m.Quantity.Round(QuantityScale)
	if !m.Quantity.IsPositive() {
		return apperr.Validation("مقدار نامعتبر است").WithField("quantity", "باید بزرگ‌تر از صفر باشد")
	}
	if !QuantityInRange(m.Quantity) {
		return apperr.Validation("مقدار بیش از حد بزرگ است").WithField("quantity", "باید کمتر از 100000000000000 باشد")
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return apperr.Internal(fmt.Errorf("append movement: %w", err), "")
	}
	return nil
}
