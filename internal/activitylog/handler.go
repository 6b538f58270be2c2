package activitylog

import (
	"strconv"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/database"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type LogResponse struct {
	ID          uint                  `json:"id"`
	CreatedAt   string                `json:"createdAt"`
	UserID      uint                  `json:"userId"`
	UserName    string                `json:"userName"`
	EntityType  string                `json:"entityType"`
	EntityID    string                `json:"entityId"`
	Action      models.ActivityAction `json:"action"`
	Description string                `json:"description"`
}

// GET /api/activity-logs?entity_type=audit_cycle&entity_id=...&user_id=1&limit=50
func ListHandler(db *database.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		dbq := db.DB(c.UserContext()).
			Model(&models.ActivityLog{}).
			Where("tenant_id = ?", id.TenantID)

		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			dbq = dbq.Where("entity_id = ?", v)
		}
		if v := c.Query("user_id"); v != "" {
			uid, err := strconv.ParseUint(v, 10, 64)
			if err != nil || uid == 0 {
				return apperr.Validation("پارامتر نامعتبر است").WithField("user_id", "باید عدد مثبت باشد")
			}
			dbq = dbq.Where("user_id = ?", uid)
		}

		limit := c.QueryInt("limit", defaultLimit)
		if limit <= 0 || limit > maxLimit {
			limit = defaultLimit
		}

		var logs []models.ActivityLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return apperr.Internal(err, "")
		}

		resp := make([]LogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, LogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format(time.RFC3339),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
			})
		}

		return response.OK(c, "فهرست رویدادها", resp)
	}
}
