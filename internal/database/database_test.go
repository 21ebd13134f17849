package database

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/config"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "mysql"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunMigrationsSQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, RunMigrations(ctx, db, fstest.MapFS{}, zap.NewNop()))
	assert.False(t, IsPostgres(db))
	assert.NoError(t, HealthCheck(ctx, db))

	user := models.User{Username: "cook", Email: "cook@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	recipe := models.Recipe{
		Name:   "Pancakes",
		UserID: user.ID,
		Ingredients: models.IngredientList{{
			Name:   "flour",
			Metric: recipeutil.Measure{Quantity: recipeutil.NumericQuantity(250), Unit: "g"},
			US:     recipeutil.Measure{Quantity: recipeutil.FractionQuantity(2, 1), Unit: "cups"},
		}},
		Instructions: models.JSONBStringArray{"Heat the pan to [temp:180:356]."},
	}
	require.NoError(t, db.Create(&recipe).Error)

	var loaded models.Recipe
	require.NoError(t, db.First(&loaded, "id = ?", recipe.ID).Error)
	assert.Equal(t, models.KindRecipe, loaded.Kind)
	assert.Equal(t, 1, loaded.Servings)
	require.Len(t, loaded.Ingredients, 1)
	assert.Equal(t, "flour", loaded.Ingredients[0].Name)
	assert.Equal(t, 250.0, loaded.Ingredients[0].Metric.Quantity.Float())
	assert.Nil(t, loaded.Embedding)
}

func TestMigratorUpAndRollback(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := openSQLite(t).DB()
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"0001_widgets.sql":          {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"0001_widgets_rollback.sql": {Data: []byte("DROP TABLE widgets;")},
		"0002_gadgets.sql":          {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY); CREATE INDEX idx_gadgets ON gadgets(id);")},
		"0002_gadgets_rollback.sql": {Data: []byte("DROP TABLE gadgets;")},
		"README.md":                 {Data: []byte("not a migration")},
	}
	m := NewMigrator(sqlDB, fsys, zap.NewNop())

	ran, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_widgets.sql", "0002_gadgets.sql"}, ran)

	ran, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	last, err := m.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0002_gadgets.sql", last)

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_widgets.sql"}, applied)

	_, err = sqlDB.ExecContext(ctx, "INSERT INTO widgets (id) VALUES (1)")
	assert.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, "INSERT INTO gadgets (id) VALUES (1)")
	assert.Error(t, err)

	_, err = m.Rollback(ctx)
	require.NoError(t, err)
	_, err = m.Rollback(ctx)
	assert.ErrorIs(t, err, ErrNoMigrations)
}

func TestMigratorFailedMigrationIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := openSQLite(t).DB()
	require.NoError(t, err)

	m := NewMigrator(sqlDB, fstest.MapFS{
		"0001_broken.sql": {Data: []byte("CREATE TABLE (;")},
	}, zap.NewNop())

	_, err = m.Up(ctx)
	require.Error(t, err)

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
