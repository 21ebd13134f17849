package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/testhelpers"
)

func TestSeedFromBundledFile(t *testing.T) {
	f, err := os.Open("recipes.yaml")
	require.NoError(t, err)
	defer f.Close()
	docs, err := recipeutil.LoadDocuments(f)
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	ctx := context.Background()
	db := testhelpers.NewSQLiteDB(t)
	recipes := service.NewRecipeService(db, service.HashEmbedder{}, nil, zap.NewNop())

	owner, err := ensureOwner(ctx, db, "savorly")
	require.NoError(t, err)
	again, err := ensureOwner(ctx, db, "savorly")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)

	created, err := seed(ctx, db, recipes, docs, owner.ID, 1, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(docs), created)

	created, err = seed(ctx, db, recipes, docs, owner.ID, 1, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Where("embedding IS NOT NULL").Count(&count).Error)
	assert.EqualValues(t, len(docs), count)
}

func TestSeedReportsInvalidRecipe(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.NewSQLiteDB(t)
	recipes := service.NewRecipeService(db, service.HashEmbedder{}, nil, zap.NewNop())
	owner, err := ensureOwner(ctx, db, "savorly")
	require.NoError(t, err)

	_, err = seed(ctx, db, recipes, []recipeutil.Document{{Name: "Air"}}, owner.ID, 1, zap.NewNop())
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
