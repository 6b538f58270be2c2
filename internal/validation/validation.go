package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"restoran-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var cuidPattern = regexp.MustCompile(`^c[a-z0-9]{24}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("cuid", func(fl validator.FieldLevel) bool {
		return IsCUID(fl.Field().String())
	})
	return v
}

func IsCUID(s string) bool {
	return cuidPattern.MatchString(s)
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// Body decodes the JSON request body into dest and validates it.
func Body(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "بدنه درخواست نامعتبر است")
	}
	return Struct(dest)
}

func Struct(dest any) error {
	err := validate.Struct(dest)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.KindValidation, err, "اطلاعات ارسال‌شده نامعتبر است")
	}
	out := apperr.Validation("اطلاعات ارسال‌شده نامعتبر است")
	for _, fe := range errs {
		out.WithField(fieldPath(fe), message(fe))
	}
	return out
}

// fieldPath drops the root struct name: "entries[1].itemId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "الزامی است"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("حداقل %s مورد لازم است", fe.Param())
		}
		return fmt.Sprintf("باید حداقل %s باشد", fe.Param())
	case "max":
		return fmt.Sprintf("باید حداکثر %s باشد", fe.Param())
	case "gt":
		return fmt.Sprintf("باید بزرگ‌تر از %s باشد", fe.Param())
	case "lt":
		return fmt.Sprintf("باید کمتر از %s باشد", fe.Param())
	case "gte":
		return fmt.Sprintf("باید بزرگ‌تر یا مساوی %s باشد", fe.Param())
	case "uuid", "uuid4":
		return "شناسه کالا نامعتبر است"
	case "cuid":
		return "شناسه نامعتبر است"
	case "datetime":
		return "قالب تاریخ باید YYYY-MM-DD باشد"
	case "oneof":
		return fmt.Sprintf("باید یکی از مقادیر %s باشد", fe.Param())
	case "email":
		return "ایمیل نامعتبر است"
	}
	return "نامعتبر است"
}
