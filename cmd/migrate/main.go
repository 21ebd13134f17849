package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/pageza/savorly/backend/config"
	"github.com/pageza/savorly/backend/internal/database"
	"github.com/pageza/savorly/backend/internal/logging"
	"github.com/pageza/savorly/backend/migrations"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	logger := logging.Must("info", string(config.GetEnvironment()))
	defer func() { _ = logger.Sync() }()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Fatal("DATABASE_URL is not set and configuration failed to load", zap.Error(err))
		}
		dsn = cfg.PostgresDSN()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("Failed to reach database", zap.Error(err))
	}

	m := database.NewMigrator(db, migrations.FS, logger)
	if *rollback {
		name, err := m.Rollback(ctx)
		if errors.Is(err, database.ErrNoMigrations) {
			logger.Info("No migrations to rollback")
			return
		}
		if err != nil {
			logger.Fatal("Rollback failed", zap.Error(err))
		}
		logger.Info("Successfully rolled back migration", zap.String("name", name))
		return
	}

	ran, err := m.Up(ctx)
	if err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	logger.Info("All migrations applied", zap.Int("applied", len(ran)))
}
