// bootstrap creates a tenant and its first ADMIN user. Rerunning with the
// same email resets that user's password and role.
//
// Usage:
//
//	RESTORAN_DB_DATABASE_DSN=... go run ./cmd/bootstrap -tenant "Cafe" -email admin@cafe.ir -name Admin -password '...'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"restoran-backend/internal/auth"
	"restoran-backend/internal/config"
	"restoran-backend/internal/database"
	"restoran-backend/internal/logger"
	"restoran-backend/internal/models"

	"gorm.io/gorm"
)

const minPasswordLength = 8

type input struct {
	Tenant   string
	Name     string
	Email    string
	Password string
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "bootstrap"})

	var in input
	flag.StringVar(&in.Tenant, "tenant", "", "tenant name")
	flag.StringVar(&in.Name, "name", "Admin", "admin display name")
	flag.StringVar(&in.Email, "email", "", "admin email")
	flag.StringVar(&in.Password, "password", "", "admin password")
	flag.Parse()

	cfg, err := config.LoadDB()
	if err != nil {
		logg.Error(ctx, "bootstrap.config", err)
		os.Exit(1)
	}
	client, err := database.Open(cfg)
	if err != nil {
		logg.Error(ctx, "bootstrap.database", err)
		os.Exit(1)
	}
	defer client.Close()

	user, err := bootstrap(ctx, client, in)
	if err != nil {
		logg.Error(ctx, "bootstrap.failed", err)
		os.Exit(1)
	}
	ctx = logg.WithFields(ctx, map[string]any{"tenant_id": user.TenantID, "user_id": user.ID, "email": user.Email})
	logg.Info(ctx, "bootstrap.done")
}

func bootstrap(ctx context.Context, client *database.Client, in input) (*models.User, error) {
	in.Tenant = strings.TrimSpace(in.Tenant)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Tenant == "" || in.Email == "" {
		return nil, errors.New("-tenant and -email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("-password must be at least %d characters", minPasswordLength)
	}
	if in.Name == "" {
		in.Name = "Admin"
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = client.WithTx(ctx, nil, func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.Where(models.Tenant{Name: in.Tenant}).FirstOrCreate(&tenant).Error; err != nil {
			return fmt.Errorf("tenant: %w", err)
		}

		err := tx.Where("email = ?", in.Email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				TenantID:     tenant.ID,
				Name:         in.Name,
				Email:        in.Email,
				PasswordHash: hash,
				Role:         models.RoleAdmin,
			}
			return tx.Create(&user).Error
		case err != nil:
			return err
		}

		if user.TenantID != tenant.ID {
			return fmt.Errorf("user %s belongs to another tenant", in.Email)
		}
		return tx.Model(&user).Updates(map[string]any{
			"name":          in.Name,
			"password_hash": hash,
			"role":          models.RoleAdmin,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
