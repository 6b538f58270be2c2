package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.Nop())})
	app.Get("/x", handler)
	return app
}

func decode(t *testing.T, app *fiber.App, path string) (int, Envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestValidationErrorCarriesFields(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return apperr.Validation("نامعتبر").WithField("name", "الزامی است")
	})

	status, env := decode(t, app, "/x")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "نامعتبر", env.Message)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)
}

func TestNotFoundKeepsMessage(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return apperr.NotFound("دوره یافت نشد").WithContext("cycle_id", "c1")
	})

	status, env := decode(t, app, "/x")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "دوره یافت نشد", env.Message)
	assert.Empty(t, env.Errors)
}

func TestUnknownErrorIsHidden(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})

	status, env := decode(t, app, "/x")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, apperr.MetadataFor(apperr.KindInternal).PublicMessage, env.Message)
	assert.NotContains(t, env.Message, "pq")
}

func TestUnknownRoute(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { return nil })

	status, env := decode(t, app, "/missing")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.NotEmpty(t, env.Message)
}

func TestOKEnvelope(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return OK(c, "ok", fiber.Map{"n": 1})
	})

	status, env := decode(t, app, "/x")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", env.Message)
	assert.Equal(t, map[string]any{"n": float64(1)}, env.Data)
}
