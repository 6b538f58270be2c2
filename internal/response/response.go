package response

import (
	"errors"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the shape of every JSON response: a user-facing message plus
// either a payload or field-level errors.
type Envelope struct {
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Message: message, Data: data})
}

// ErrorHandler renders *apperr.Error values by kind and hides everything else
// behind a generic 500.
func ErrorHandler(l *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Envelope{Message: fiberMessage(fe)})
		}

		typed := apperr.As(err)
		if typed == nil {
			typed = apperr.Internal(err, "")
		}
		meta := apperr.MetadataFor(typed.Kind())

		msg := meta.PublicMessage
		if meta.ShowMessage && typed.Message() != "" {
			msg = typed.Message()
		}

		if l != nil {
			ctx := c.UserContext()
			if fields := typed.Context(); len(fields) > 0 {
				ctx = l.WithFields(ctx, fields)
			}
			ctx = l.WithField(ctx, "error_kind", string(typed.Kind()))
			if typed.Kind() == apperr.KindInternal {
				l.Error(ctx, "request.error", err)
			} else {
				l.Debug(ctx, "request.rejected")
			}
		}

		return c.Status(meta.HTTPStatus).JSON(Envelope{Message: msg, Errors: typed.Fields()})
	}
}

func fiberMessage(fe *fiber.Error) string {
	switch fe.Code {
	case fiber.StatusNotFound:
		return "مسیر درخواستی یافت نشد"
	case fiber.StatusMethodNotAllowed:
		return "متد درخواست مجاز نیست"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperr.MetadataFor(apperr.KindValidation).PublicMessage
	case fiber.StatusRequestEntityTooLarge:
		return "حجم درخواست بیش از حد مجاز است"
	}
	if fe.Code >= fiber.StatusInternalServerError {
		return apperr.MetadataFor(apperr.KindInternal).PublicMessage
	}
	return fe.Message
}
