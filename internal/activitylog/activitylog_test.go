package activitylog

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"restoran-backend/internal/auth"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/metrics"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"
	"restoran-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherWritesOnClose(t *testing.T) {
	db := testutil.NewDB(t)
	d := NewDispatcher(db, logger.Nop(), nil, 8)

	d.Record(context.Background(), Entry{
		TenantID:    1,
		UserID:      2,
		UserName:    "ali",
		EntityType:  "audit_cycle",
		EntityID:    "c1",
		Action:      models.ActivityCreate,
		Description: "created",
		After:       map[string]string{"name": "Q1"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	var rows []models.ActivityLog
	require.NoError(t, db.DB(ctx).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "null", rows[0].BeforeData)
	assert.JSONEq(t, `{"name":"Q1"}`, rows[0].AfterData)
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	db := testutil.NewDB(t)
	reg := prometheus.NewRegistry()
	d := NewDispatcher(db, logger.Nop(), metrics.NewAudit(reg), 1)
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() {
		d.Record(context.Background(), Entry{TenantID: 1, EntityType: "item"})
	})

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var dropped float64
	for _, mf := range mfs {
		if mf.GetName() == "activity_log_dropped_total" {
			dropped = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, dropped)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "شما", truncate("شمارش", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
}

func TestListIsTenantScoped(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	for _, row := range []models.ActivityLog{
		{TenantID: 1, UserID: 1, EntityType: "audit_cycle", EntityID: "a", Action: models.ActivityCreate, BeforeData: "null", AfterData: "null"},
		{TenantID: 1, UserID: 1, EntityType: "item", EntityID: "b", Action: models.ActivityCreate, BeforeData: "null", AfterData: "null"},
		{TenantID: 2, UserID: 9, EntityType: "audit_cycle", EntityID: "c", Action: models.ActivityCreate, BeforeData: "null", AfterData: "null"},
	} {
		row := row
		require.NoError(t, db.DB(ctx).Create(&row).Error)
	}

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(logger.Nop())})
	app.Get("/logs", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxTenantIDKey, uint(1))
		c.Locals(auth.CtxUserRoleKey, models.RoleAdmin)
		return c.Next()
	}, ListHandler(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/logs?entity_type=audit_cycle", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var env struct {
		Data []LogResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "a", env.Data[0].EntityID)

	resp, err = app.Test(httptest.NewRequest("GET", "/logs?user_id=x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
