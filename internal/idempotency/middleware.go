package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/auth"
	"restoran-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"
	DefaultTTL     = 24 * time.Hour
	maxKeyLength   = 128
)

type record struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Middleware replays the stored response when a request repeats an
// Idempotency-Key with the same body and rejects the key when the body
// differs. Requests without the header pass through. Store failures are
// logged and the request proceeds unguarded.
func Middleware(store Store, ttl time.Duration, l *logger.Logger) fiber.Handler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return func(c *fiber.Ctx) error {
		if store == nil {
			return c.Next()
		}
		id := strings.TrimSpace(c.Get(HeaderKey))
		if id == "" {
			return c.Next()
		}
		if len(id) > maxKeyLength {
			return apperr.Validation("کلید Idempotency بیش از حد طولانی است").WithField(HeaderKey, "حداکثر ۱۲۸ کاراکتر")
		}

		ctx := c.UserContext()
		key := Key(scope(c), id)
		hash := hashBody(c.Body())

		stored, err := store.Get(ctx, key)
		switch {
		case err == nil:
			rec, decodeErr := decode(stored)
			if decodeErr != nil {
				logError(ctx, l, "idempotency.decode", decodeErr)
				break
			}
			if rec.RequestHash != hash {
				return apperr.New(apperr.KindConflict, "این کلید Idempotency قبلا با درخواست دیگری استفاده شده است")
			}
			return replay(c, rec)
		case errors.Is(err, ErrMiss):
		default:
			logError(ctx, l, "idempotency.get", err)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		payload, err := json.Marshal(record{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			RequestHash: hash,
		})
		if err != nil {
			logError(ctx, l, "idempotency.marshal", err)
			return nil
		}
		if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
			logError(ctx, l, "idempotency.set", err)
		}
		return nil
	}
}

func scope(c *fiber.Ctx) string {
	var tenant, user uint
	if id, err := auth.IdentityFrom(c); err == nil {
		tenant, user = id.TenantID, id.UserID
	}
	return fmt.Sprintf("%d|%d|%s|%s", tenant, user, c.Method(), c.Path())
}

func replay(c *fiber.Ctx, rec *record) error {
	body, err := base64.StdEncoding.DecodeString(rec.Body)
	if err != nil {
		return apperr.Internal(err, "")
	}
	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	c.Set(HeaderReplayed, "true")
	return c.Status(rec.Status).Send(body)
}

func decode(payload string) (*record, error) {
	var rec record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func logError(ctx context.Context, l *logger.Logger, msg string, err error) {
	if l == nil || err == nil {
		return
	}
	l.Error(ctx, msg, err)
}
