package inventory

import (
	"fmt"
	"strings"
	"time"

	"restoran-backend/internal/activitylog"
	"restoran-backend/internal/apperr"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/database"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"
	"restoran-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateMovementRequest struct {
	ItemID   string   `json:"itemId" validate:"required,uuid"`
	Type     string   `json:"type" validate:"required,oneof=IN OUT"`
	Quantity *float64 `json:"quantity" validate:"required,gt=0,lt=100000000000000"`
	Note     string   `json:"note" validate:"max=500"`
}

type MovementResponse struct {
	ID        uint                `json:"id"`
	ItemID    string              `json:"itemId"`
	Type      models.MovementType `json:"type"`
	Quantity  float64             `json:"quantity"`
	Note      string              `json:"note"`
	CreatedBy uint                `json:"createdBy"`
	CreatedAt string              `json:"createdAt"`
	OnHand    float64             `json:"onHand"`
}

type StockResponse struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	OnHand   float64 `json:"onHand"`
}

// POST /api/inventory/movements
func CreateMovementHandler(db *database.Client, ledger *Ledger, rec activitylog.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		var body CreateMovementRequest
		if err := validation.Body(c, &body); err != nil {
			return err
		}
		itemID := uuid.MustParse(body.ItemID)

		ctx := c.UserContext()
		var (
			item     *models.Item
			movement models.StockMovement
			onHand   decimal.Decimal
		)
		err = db.WithTx(ctx, nil, func(tx *gorm.DB) error {
			var err error
			if item, err = ledger.ActiveItem(ctx, tx, id.TenantID, itemID); err != nil {
				return err
			}
			movement = models.StockMovement{
				TenantID:  id.TenantID,
				ItemID:    itemID,
				Type:      models.MovementType(body.Type),
				Quantity:  decimal.NewFromFloat(*body.Quantity),
				Note:      strings.TrimSpace(body.Note),
				CreatedBy: id.UserID,
			}
			if err := ledger.Append(ctx, tx, &movement); err != nil {
				return err
			}
			onHand, err = ledger.OnHand(ctx, tx, id.TenantID, itemID)
			return err
		})
		if err != nil {
			if apperr.As(err) != nil {
				return err
			}
			return apperr.Internal(err, "")
		}

		rec.Record(ctx, activitylog.Entry{
			TenantID:    id.TenantID,
			UserID:      id.UserID,
			UserName:    id.Name,
			EntityType:  "stock_movement",
			EntityID:    fmt.Sprint(movement.ID),
			Action:      models.ActivityCreate,
			Description: fmt.Sprintf("حرکت انبار %s: %s %s %s", movement.Type, item.Name, movement.Quantity.String(), item.Unit),
			After:       movement,
		})

		return response.Created(c, "حرکت انبار ثبت شد", MovementResponse{
			ID:        movement.ID,
			ItemID:    movement.ItemID.String(),
			Type:      movement.Type,
			Quantity:  movement.Quantity.InexactFloat64(),
			Note:      movement.Note,
			CreatedBy: movement.CreatedBy,
			CreatedAt: movement.CreatedAt.Format(time.RFC3339),
			OnHand:    onHand.InexactFloat64(),
		})
	}
}

// GET /api/inventory/stock
func ListStockHandler(db *database.Client, ledger *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		conn := db.DB(ctx)

		items, err := ledger.ActiveItems(ctx, conn, id.TenantID)
		if err != nil {
			return err
		}

		totals, err := ledger.OnHandAll(ctx, conn, id.TenantID)
		if err != nil {
			return err
		}

		res := make([]StockResponse, 0, len(items))
		for _, it := range items {
			res = append(res, StockResponse{
				ItemID:   it.ID.String(),
				Name:     it.Name,
				Category: it.Category,
				Unit:     it.Unit,
				OnHand:   totals[it.ID].InexactFloat64(),
			})
		}
		return response.OK(c, "موجودی انبار", res)
	}
}
