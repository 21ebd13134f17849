// Command seed_recipes loads recipes from a YAML file into the database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/config"
	"github.com/pageza/savorly/backend/internal/app"
	"github.com/pageza/savorly/backend/internal/database"
	"github.com/pageza/savorly/backend/internal/logging"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
	"github.com/pageza/savorly/backend/migrations"
)

func main() {
	file := flag.String("file", "cmd/seed_recipes/recipes.yaml", "YAML file of recipes")
	owner := flag.String("owner", "savorly", "username that owns the seeded recipes")
	concurrency := flag.Int("concurrency", 4, "recipes embedded in parallel")
	flag.Parse()

	env := string(config.GetEnvironment())
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Must("info", env).Fatal("Failed to load configuration", zap.Error(err))
	}
	logger := logging.Must(cfg.LogLevel, env)
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("Failed to open seed file", zap.Error(err))
	}
	docs, err := recipeutil.LoadDocuments(f)
	f.Close()
	if err != nil {
		logger.Fatal("Failed to parse seed file", zap.String("file", *file), zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(ctx, db, migrations.FS, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	embedder, err := app.NewEmbedder(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}

	user, err := ensureOwner(ctx, db, *owner)
	if err != nil {
		logger.Fatal("Failed to prepare owner", zap.Error(err))
	}

	recipes := service.NewRecipeService(db, embedder, nil, logger)
	created, err := seed(ctx, db, recipes, docs, user.ID, *concurrency, logger)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Int("created", created), zap.Error(err))
	}
	logger.Info("Seeding complete", zap.Int("created", created), zap.Int("in_file", len(docs)))
}

// ensureOwner finds the seeding user, creating it with an unusable password.
func ensureOwner(ctx context.Context, db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Username:     username,
		Email:        username + "@savorly.app",
		PasswordHash: string(hash),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", username, err)
	}
	return &user, nil
}

func recipeRequest(doc recipeutil.Document) *types.RecipeRequest {
	return &types.RecipeRequest{
		Kind:         doc.Kind,
		Name:         doc.Name,
		Description:  doc.Description,
		Category:     doc.Category,
		Cuisine:      doc.Cuisine,
		Difficulty:   doc.Difficulty,
		Servings:     doc.Servings,
		PrepMinutes:  doc.PrepMinutes,
		CookMinutes:  doc.CookMinutes,
		Ingredients:  doc.Ingredients,
		Instructions: doc.Instructions,
		Tags:         doc.Tags,
	}
}

// seed creates every document the owner does not already have, embedding up
// to concurrency recipes at once. It returns how many were created.
func seed(ctx context.Context, db *gorm.DB, recipes *service.RecipeService, docs []recipeutil.Document, ownerID uuid.UUID, concurrency int, logger *zap.Logger) (int, error) {
	var existing []string
	if err := db.WithContext(ctx).Model(&models.Recipe{}).
		Where("user_id = ?", ownerID).Pluck("name", &existing).Error; err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var created atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, doc := range docs {
		if have[doc.Name] {
			logger.Debug("Recipe already seeded", zap.String("name", doc.Name))
			continue
		}
		have[doc.Name] = true
		g.Go(func() error {
			recipe, err := recipes.CreateRecipe(ctx, service.RecipeFromRequest(ownerID, recipeRequest(doc)))
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Name, err)
			}
			created.Add(1)
			logger.Info("Seeded recipe", zap.String("name", recipe.Name), zap.String("id", recipe.ID.String()))
			return nil
		})
	}
	err := g.Wait()
	return int(created.Load()), err
}
