// Package testutil builds throwaway sqlite databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"restoran-backend/internal/database"
	"restoran-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens an isolated in-memory database with the full schema. The pool is
// pinned to one connection, so code under test must run transactional work on
// the tx handle it is given.
func NewDB(t *testing.T) *database.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	conn, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(context.Background(), conn))
	return database.New(conn)
}

func CreateTenant(t *testing.T, db *database.Client, name string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Name: name}
	require.NoError(t, db.DB(context.Background()).Create(tenant).Error)
	return tenant
}

func CreateUser(t *testing.T, db *database.Client, tenantID uint, email string, role models.UserRole, passwordHash string) *models.User {
	t.Helper()
	user := &models.User{
		TenantID:     tenantID,
		Name:         strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	require.NoError(t, db.DB(context.Background()).Create(user).Error)
	return user
}

func CreateItem(t *testing.T, db *database.Client, tenantID uint, name string, active bool) *models.Item {
	t.Helper()
	item := &models.Item{
		TenantID: tenantID,
		Name:     name,
		Category: "dry goods",
		Unit:     "kg",
		IsActive: true,
	}
	ctx := context.Background()
	require.NoError(t, db.DB(ctx).Create(item).Error)
	if !active {
		// the column default would override a false value on insert
		require.NoError(t, db.DB(ctx).Model(item).Update("is_active", false).Error)
		item.IsActive = false
	}
	return item
}

// Stock appends one ledger movement for the item.
func Stock(t *testing.T, db *database.Client, tenantID uint, itemID uuid.UUID, typ models.MovementType, qty string) {
	t.Helper()
	m := &models.StockMovement{
		TenantID:  tenantID,
		ItemID:    itemID,
		Type:      typ,
		Quantity:  decimal.RequireFromString(qty),
		Note:      "seed",
		CreatedBy: 1,
	}
	require.NoError(t, db.DB(context.Background()).Create(m).Error)
}
