package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/models"
)

// ErrNoMigrations is returned by Rollback when nothing has been applied.
var ErrNoMigrations = errors.New("no migrations to rollback")

const rollbackSuffix = "_rollback.sql"

// AllModels lists every table the application owns.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Recipe{},
		&models.RecipeFavorite{},
		&models.RecipeRating{},
		&models.Product{},
		&models.NewsletterSubscriber{},
		&models.NewsletterIssue{},
		&models.Feedback{},
	}
}

// RunMigrations prepares the schema. SQLite has no pgvector, so it is built
// from the models; PostgreSQL applies the SQL files in fsys.
func RunMigrations(ctx context.Context, db *gorm.DB, fsys fs.FS, logger *zap.Logger) error {
	if !IsPostgres(db) {
		logger.Info("Using GORM auto-migration", zap.String("dialect", db.Dialector.Name()))
		return db.WithContext(ctx).AutoMigrate(AllModels()...)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	_, err = NewMigrator(sqlDB, fsys, logger).Up(ctx)
	return err
}

// Migrator applies ordered .sql files and records them in schema_migrations.
// A file named <name>_rollback.sql undoes <name>.sql.
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	logger *zap.Logger
}

func NewMigrator(db *sql.DB, fsys fs.FS, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, fsys: fsys, logger: logger}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// files lists migration files in apply order, rollback files excluded.
func (m *Migrator) files() ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func version(name string) string {
	if i := strings.IndexByte(name, '_'); i > 0 {
		return name[:i]
	}
	return strings.TrimSuffix(name, ".sql")
}

// Applied returns the names of applied migrations, oldest first.
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Up applies every pending migration and returns the names it applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	files, err := m.files()
	if err != nil {
		return nil, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	var ran []string
	for _, name := range files {
		if done[name] {
			m.logger.Debug("Skipping migration (already applied)", zap.String("name", name))
			continue
		}
		content, err := fs.ReadFile(m.fsys, name)
		if err != nil {
			return ran, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		err = m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version(name), name); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return ran, err
		}
		m.logger.Info("Applied migration", zap.String("name", name))
		ran = append(ran, name)
	}
	return ran, nil
}

// Rollback undoes the most recently applied migration and returns its name.
func (m *Migrator) Rollback(ctx context.Context) (string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", ErrNoMigrations
	}
	last := applied[len(applied)-1]

	rollbackFile := strings.TrimSuffix(last, ".sql") + rollbackSuffix
	content, err := fs.ReadFile(m.fsys, rollbackFile)
	if err != nil {
		return "", fmt.Errorf("rollback file not found: %s: %w", rollbackFile, err)
	}

	err = m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute rollback %s: %w", rollbackFile, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE name = $1`, last); err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", last, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	m.logger.Info("Rolled back migration", zap.String("name", last))
	return last, nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
