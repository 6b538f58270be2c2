package main

import (
	"context"
	"testing"

	"restoran-backend/internal/models"
	"restoran-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBootstrapCreatesTenantAndAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	user, err := bootstrap(ctx, db, input{Tenant: "Cafe", Name: "Owner", Email: " Owner@Cafe.ir ", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "owner@cafe.ir", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)

	var tenants int64
	require.NoError(t, db.DB(ctx).Model(&models.Tenant{}).Count(&tenants).Error)
	assert.Equal(t, int64(1), tenants)

	again, err := bootstrap(ctx, db, input{Tenant: "Cafe", Email: "owner@cafe.ir", Password: "another-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var stored models.User
	require.NoError(t, db.DB(ctx).First(&stored, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("another-pass")))
}

func TestBootstrapRejectsBadInput(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	_, err := bootstrap(ctx, db, input{Email: "a@b.c", Password: "long-enough"})
	assert.Error(t, err)

	_, err = bootstrap(ctx, db, input{Tenant: "Cafe", Email: "a@b.c", Password: "short"})
	assert.Error(t, err)
}

func TestBootstrapRefusesCrossTenantEmail(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	_, err := bootstrap(ctx, db, input{Tenant: "Cafe", Email: "a@b.c", Password: "long-enough"})
	require.NoError(t, err)

	_, err = bootstrap(ctx, db, input{Tenant: "Bistro", Email: "a@b.c", Password: "long-enough"})
	assert.ErrorContains(t, err, "another tenant")
}
