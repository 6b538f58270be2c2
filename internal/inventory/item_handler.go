package inventory

import (
	"strings"

	"restoran-backend/internal/activitylog"
	"restoran-backend/internal/apperr"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/database"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"
	"restoran-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	IsActive bool   `json:"isActive"`
}

type CreateItemRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"max=100"`
	Unit     string `json:"unit" validate:"required,max=20"`
	IsActive *bool  `json:"isActive"`
}

func itemResponse(i *models.Item) ItemResponse {
	return ItemResponse{
		ID:       i.ID.String(),
		Name:     i.Name,
		Category: i.Category,
		Unit:     i.Unit,
		IsActive: i.IsActive,
	}
}

// GET /api/inventory/items?include_inactive=true
func ListItemsHandler(db *database.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		dbq := db.DB(c.UserContext()).Model(&models.Item{}).Where("tenant_id = ?", id.TenantID)
		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var items []models.Item
		if err := dbq.Order("name asc").Find(&items).Error; err != nil {
			return apperr.Internal(err, "")
		}

		res := make([]ItemResponse, 0, len(items))
		for i := range items {
			res = append(res, itemResponse(&items[i]))
		}
		return response.OK(c, "فهرست کالاها", res)
	}
}

// POST /api/inventory/items
func CreateItemHandler(db *database.Client, rec activitylog.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "بدنه درخواست نامعتبر است")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Category = strings.TrimSpace(body.Category)
		body.Unit = strings.TrimSpace(body.Unit)
		if err := validation.Struct(&body); err != nil {
			return err
		}

		item := models.Item{
			TenantID: id.TenantID,
			Name:     body.Name,
			Category: body.Category,
			Unit:     body.Unit,
			IsActive: true,
		}

		ctx := c.UserContext()
		err = db.WithTx(ctx, nil, func(tx *gorm.DB) error {
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			// is_active has a column default, so false is written separately.
			if body.IsActive != nil && !*body.IsActive {
				item.IsActive = false
				return tx.Model(&item).Update("is_active", false).Error
			}
			return nil
		})
		if err != nil {
			return apperr.Internal(err, "")
		}

		rec.Record(ctx, activitylog.Entry{
			TenantID:    id.TenantID,
			UserID:      id.UserID,
			UserName:    id.Name,
			EntityType:  "item",
			EntityID:    item.ID.String(),
			Action:      models.ActivityCreate,
			Description: "کالای جدید: " + item.Name,
			After:       itemResponse(&item),
		})

		return response.Created(c, "کالا ایجاد شد", itemResponse(&item))
	}
}
