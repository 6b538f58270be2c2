package auth

import (
	"errors"
	"strings"
	"time"

	"restoran-backend/internal/apperr"
	"restoran-backend/internal/database"
	"restoran-backend/internal/models"
	"restoran-backend/internal/response"
	"restoran-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserView struct {
	ID       uint            `json:"id"`
	TenantID uint            `json:"tenantId"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
}

func viewOf(u *models.User) UserView {
	return UserView{ID: u.ID, TenantID: u.TenantID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// POST /api/auth/login
func LoginHandler(db *database.Client, secret string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "بدنه درخواست نامعتبر است")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := validation.Struct(&body); err != nil {
			return err
		}

		badCredentials := apperr.New(apperr.KindUnauthorized, "ایمیل یا رمز عبور اشتباه است")

		var user models.User
		if err := db.DB(c.UserContext()).Where("email = ?", body.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return badCredentials
			}
			return apperr.Internal(err, "")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return badCredentials
		}

		token, err := GenerateToken(secret, ttl, &user)
		if err != nil {
			return apperr.Internal(err, "")
		}

		return response.OK(c, "ورود موفق", fiber.Map{
			"token": token,
			"user":  viewOf(&user),
		})
	}
}

// GET /api/auth/me
func MeHandler(db *database.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := IdentityFrom(c)
		if err != nil {
			return err
		}

		var user models.User
		err = db.DB(c.UserContext()).
			Where("id = ? AND tenant_id = ?", id.UserID, id.TenantID).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("کاربر یافت نشد")
		}
		if err != nil {
			return apperr.Internal(err, "")
		}
		return response.OK(c, "اطلاعات کاربر", viewOf(&user))
	}
}
