package models

import "time"

type ActivityAction string

const (
	ActivityCreate   ActivityAction = "create"
	ActivityUpdate   ActivityAction = "update"
	ActivityStart    ActivityAction = "start"
	ActivityComplete ActivityAction = "complete"
	ActivityCancel   ActivityAction = "cancel"
	ActivityCorrect  ActivityAction = "correct"
)

// ActivityLog records who did what to which entity. Rows are written on a
// best-effort basis and never block the operation that produced them.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TenantID uint   `gorm:"index;not null" json:"tenant_id"`
	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // denormalized

	// "audit_cycle", "audit_entry", "stock_movement", "item"
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   string `gorm:"size:64;index" json:"entity_id"`

	Action      ActivityAction `gorm:"size:20" json:"action"`
	Description string         `gorm:"size:255" json:"description"`

	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
