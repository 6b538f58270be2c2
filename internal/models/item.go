package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a stock-keeping unit in a tenant's catalog.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:100;not null"`
	Category  string    `gorm:"size:100"`
	Unit      string    `gorm:"size:20;not null"` // kg, adet, koli ...
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
