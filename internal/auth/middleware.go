package auth

import (
	"strings"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxTenantIDKey = "tenant_id"
	CtxUserNameKey = "user_name"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uint
	TenantID uint
	Name     string
	Role     models.UserRole
}

func JWTMiddleware(secret string, l *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.New(apperr.KindUnauthorized, "هدر Authorization ارسال نشده است")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.New(apperr.KindUnauthorized, "قالب Authorization باید 'Bearer <token>' باشد")
		}

		claims, err := ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			return apperr.Wrap(apperr.KindUnauthorized, err, "توکن نامعتبر یا منقضی شده است")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxTenantIDKey, claims.TenantID)
		c.Locals(CtxUserNameKey, claims.Name)

		if l != nil {
			c.SetUserContext(l.WithFields(c.UserContext(), map[string]any{
				"user_id":   claims.UserID,
				"tenant_id": claims.TenantID,
			}))
		}

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return apperr.New(apperr.KindForbidden, "نقش کاربر مشخص نیست")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return apperr.New(apperr.KindForbidden, "برای این عملیات دسترسی ندارید")
	}
}

// IdentityFrom reads the caller set by JWTMiddleware.
func IdentityFrom(c *fiber.Ctx) (Identity, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return Identity{}, apperr.New(apperr.KindUnauthorized, "کاربر احراز هویت نشده است")
	}
	tenantID, ok := c.Locals(CtxTenantIDKey).(uint)
	if !ok || tenantID == 0 {
		return Identity{}, apperr.New(apperr.KindForbidden, "مجموعه کاربر مشخص نیست")
	}
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	name, _ := c.Locals(CtxUserNameKey).(string)
	return Identity{UserID: userID, TenantID: tenantID, Name: name, Role: role}, nil
}
