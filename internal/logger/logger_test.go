package logger

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"restoran-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})

	ctx := log.WithField(context.Background(), "tenant_id", 7)
	log.Error(ctx, "boom", errors.New("kaboom"))

	assert.Contains(t, buf.String(), `"tenant_id":7`)
	assert.Contains(t, buf.String(), `"error":"kaboom"`)
	assert.Contains(t, buf.String(), `"service":"test"`)
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
}

func TestMiddlewareLogsRequest(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(Middleware(log))
	app.Get("/ping", func(c *fiber.Ctx) error {
		log.Info(c.UserContext(), "inside")
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, `"msg":"inside"`)
	assert.Contains(t, out, `"path":"/ping"`)
	assert.Contains(t, out, `"request_id"`)
	assert.Contains(t, out, `"status":204`)
}

func TestMiddlewareLogsErrorStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	app := fiber.New()
	app.Use(Middleware(log))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperr.NotFound("nope")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"failed":true`)
}
