// Command seed_users creates development accounts, including one admin.
package main

import (
	"context"
	"errors"
	"flag"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/config"
	"github.com/pageza/savorly/backend/internal/database"
	"github.com/pageza/savorly/backend/internal/logging"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
	"github.com/pageza/savorly/backend/migrations"
)

type seedUser struct {
	types.RegisterRequest
	admin bool
}

func devUsers() []seedUser {
	return []seedUser{
		{RegisterRequest: types.RegisterRequest{Username: "johndoe", Email: "john.doe@example.com", PreferredSystem: "us"}},
		{RegisterRequest: types.RegisterRequest{Username: "janesmith", Email: "jane.smith@example.com", DietaryPreferences: []string{"vegetarian"}}},
		{RegisterRequest: types.RegisterRequest{Username: "bobwilson", Email: "bob.wilson@example.com", Allergens: []string{"peanuts", "shellfish"}}},
		{RegisterRequest: types.RegisterRequest{Username: "admin", Email: "admin@example.com"}, admin: true},
	}
}

func main() {
	password := flag.String("password", "testpassword123", "password for every seeded account")
	flag.Parse()

	env := config.GetEnvironment()
	if env == config.Production {
		logging.Must("info", string(env)).Fatal("Refusing to seed development users in production")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Must("info", string(env)).Fatal("Failed to load configuration", zap.Error(err))
	}
	logger := logging.Must(cfg.LogLevel, string(env))
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(ctx, db, migrations.FS, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	auth := service.NewAuthService(db, cfg.JWTSecret, logger)
	if err := seedUsers(ctx, db, auth, devUsers(), *password, logger); err != nil {
		logger.Fatal("Seeding users failed", zap.Error(err))
	}
}

// seedUsers registers each account unless it already exists, then grants
// the admin role where requested.
func seedUsers(ctx context.Context, db *gorm.DB, auth *service.AuthService, users []seedUser, password string, logger *zap.Logger) error {
	for _, u := range users {
		req := u.RegisterRequest
		req.Password = password

		user, err := auth.Register(ctx, &req)
		switch {
		case errors.Is(err, service.ErrConflict):
			var existing models.User
			if err := db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err != nil {
				return err
			}
			user = &existing
			logger.Info("User already exists", zap.String("username", user.Username))
		case err != nil:
			return err
		default:
			logger.Info("Created user", zap.String("username", user.Username), zap.String("email", user.Email))
		}

		if u.admin && user.Role != models.RoleAdmin {
			if _, err := auth.PromoteUser(ctx, user.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
