package idempotency

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", ErrMiss
}

func (f *fakeStore) SetNX(_ context.Context, key string, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func newApp(store Store, calls *int, fail bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(logger.Nop())})
	app.Post("/op", Middleware(store, time.Hour, logger.Nop()), func(c *fiber.Ctx) error {
		*calls++
		if fail {
			return apperr.NotFound("یافت نشد")
		}
		return response.OK(c, "ok", fiber.Map{"call": *calls})
	})
	return app
}

func post(t *testing.T, app *fiber.App, key, body string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/op", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b), resp.Header.Get(HeaderReplayed)
}

func TestReplaysSameRequest(t *testing.T) {
	calls := 0
	app := newApp(newFakeStore(), &calls, false)

	status, first, replayed := post(t, app, "k1", `{"a":1}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, replayed)

	status, second, replayed := post(t, app, "k1", `{"a":1}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "true", replayed)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestRejectsDifferentBody(t *testing.T) {
	calls := 0
	app := newApp(newFakeStore(), &calls, false)

	post(t, app, "k1", `{"a":1}`)
	status, _, _ := post(t, app, "k1", `{"a":2}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, 1, calls)
}

func TestWithoutKeyPassesThrough(t *testing.T) {
	calls := 0
	app := newApp(newFakeStore(), &calls, false)

	post(t, app, "", `{}`)
	post(t, app, "", `{}`)
	assert.Equal(t, 2, calls)
}

func TestErrorsAreNotStored(t *testing.T) {
	calls := 0
	store := newFakeStore()
	app := newApp(store, &calls, true)

	status, _, _ := post(t, app, "k1", `{}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	post(t, app, "k1", `{}`)
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestStoreFailureFailsOpen(t *testing.T) {
	calls := 0
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	app := newApp(store, &calls, false)

	status, _, _ := post(t, app, "k1", `{}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, calls)
}

func TestNilStoreDisables(t *testing.T) {
	calls := 0
	app := newApp(nil, &calls, false)
	post(t, app, "k1", `{}`)
	post(t, app, "k1", `{}`)
	assert.Equal(t, 2, calls)
}

func TestKeyIsNamespaced(t *testing.T) {
	assert.Equal(t, "restoran:idempotency:1|2|POST|/x:abc", Key("1|2|POST|/x", "abc"))
}
