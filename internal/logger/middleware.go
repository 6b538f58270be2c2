package logger

import (
	"time"

	"restoran-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Middleware attaches request scoped fields to the fiber user context and
// writes one line per completed request.
func Middleware(l *Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields := map[string]any{
			"method": c.Method(),
			"path":   c.Path(),
		}
		if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
			fields["request_id"] = rid
		}
		ctx := l.WithFields(c.UserContext(), fields)
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = apperr.MetadataFor(apperr.KindOf(err)).HTTPStatus
			}
		}
		l.fromContext(c.UserContext()).Info().
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Bool("failed", err != nil).
			Msg("request.complete")
		return err
	}
}
