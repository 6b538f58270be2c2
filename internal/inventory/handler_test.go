package inventory

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"restoran-backend/internal/activitylog"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/database"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"
	"restoran-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func as(u *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, u.ID)
		c.Locals(auth.CtxTenantIDKey, u.TenantID)
		c.Locals(auth.CtxUserRoleKey, u.Role)
		c.Locals(auth.CtxUserNameKey, u.Name)
		return c.Next()
	}
}

func newApp(db *database.Client, u *models.User) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(logger.Nop())})
	ledger := NewLedger()
	rec := activitylog.Discard{}
	app.Use(as(u))
	app.Get("/items", ListItemsHandler(db))
	app.Post("/items", CreateItemHandler(db, rec))
	app.Post("/movements", CreateMovementHandler(db, ledger, rec))
	app.Get("/stock", ListStockHandler(db, ledger))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func TestItemsAndStockFlow(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.CreateTenant(t, db, "cafe")
	user := testutil.CreateUser(t, db, tenant.ID, "m@example.com", models.RoleManager, "x")
	app := newApp(db, user)

	status, body := call(t, app, "POST", "/items", `{"name":" Rice ","unit":"kg","category":"grain"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var created struct {
		Data ItemResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Rice", created.Data.Name)
	assert.True(t, created.Data.IsActive)

	status, _ = call(t, app, "POST", "/items", `{"name":"Retired","unit":"kg","isActive":false}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body = call(t, app, "GET", "/items", "")
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Data []ItemResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Data, 1)

	status, _ = call(t, app, "POST", "/movements", `{"itemId":"`+created.Data.ID+`","type":"IN","quantity":12.5}`)
	require.Equal(t, fiber.StatusCreated, status)
	status, body = call(t, app, "POST", "/movements", `{"itemId":"`+created.Data.ID+`","type":"OUT","quantity":2}`)
	require.Equal(t, fiber.StatusCreated, status)
	var mv struct {
		Data MovementResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &mv))
	assert.InDelta(t, 10.5, mv.Data.OnHand, 0.0001)

	status, body = call(t, app, "GET", "/stock", "")
	require.Equal(t, fiber.StatusOK, status)
	var stock struct {
		Data []StockResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &stock))
	require.Len(t, stock.Data, 1)
	assert.InDelta(t, 10.5, stock.Data[0].OnHand, 0.0001)
}

func TestMovementValidation(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.CreateTenant(t, db, "cafe")
	user := testutil.CreateUser(t, db, tenant.ID, "s@example.com", models.RoleStaff, "x")
	item := testutil.CreateItem(t, db, tenant.ID, "oil", false)
	app := newApp(db, user)

	status, _ := call(t, app, "POST", "/movements", `{"itemId":"nope","type":"IN","quantity":1}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, "POST", "/movements", `{"itemId":"`+item.ID.String()+`","type":"IN","quantity":0}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, "POST", "/movements", `{"itemId":"`+item.ID.String()+`","type":"IN","quantity":1}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}
