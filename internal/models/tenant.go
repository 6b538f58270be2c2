package models

import "time"

// Tenant owns every row in the system; all queries are scoped by TenantID.
type Tenant struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
