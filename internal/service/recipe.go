package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
	"github.com/pageza/savorly/backend/internal/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

func (a Actor) owns(ownerID uuid.UUID) bool {
	return a.Admin || a.UserID == ownerID
}

// RecipeService handles recipe operations
type RecipeService struct {
	db       *gorm.DB
	embedder Embedder
	cache    *RenderCache
	logger   *zap.Logger
}

// NewRecipeService creates a new RecipeService instance. embedder and cache
// may be nil.
func NewRecipeService(db *gorm.DB, embedder Embedder, cache *RenderCache, logger *zap.Logger) *RecipeService {
	return &RecipeService{
		db:       db,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}
}

var titleCase = cases.Title(language.English)

// normalizeCategory title-cases free-form categories ("main course" -> "Main Course").
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return ""
	}
	return titleCase.String(strings.ToLower(category))
}

func validateRecipe(r *models.Recipe) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if r.Kind != "" && !models.IsKind(r.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, r.Kind)
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("%w: at least one ingredient is required", ErrInvalidInput)
	}
	if r.Servings < 0 {
		return fmt.Errorf("%w: servings must be positive", ErrInvalidInput)
	}
	return nil
}

// RecipeFromRequest builds an unsaved recipe owned by userID.
func RecipeFromRequest(userID uuid.UUID, req *types.RecipeRequest) *models.Recipe {
	return &models.Recipe{
		Kind:         req.Kind,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Category:     req.Category,
		Cuisine:      req.Cuisine,
		ImageURL:     req.ImageURL,
		Servings:     req.Servings,
		PrepMinutes:  req.PrepMinutes,
		CookMinutes:  req.CookMinutes,
		Difficulty:   req.Difficulty,
		Ingredients:  models.IngredientList(req.Ingredients),
		Instructions: models.JSONBStringArray(req.Instructions),
		Tags:         models.JSONBStringArray(req.Tags),
		Calories:     req.Calories,
		Protein:      req.Protein,
		Carbs:        req.Carbs,
		Fat:          req.Fat,
		UserID:       userID,
	}
}

func (s *RecipeService) embed(ctx context.Context, recipe *models.Recipe) {
	if s.embedder == nil {
		return
	}
	vec, err := s.embedder.GenerateEmbedding(ctx, recipe.EmbeddingText())
	if err != nil {
		s.logger.Warn("Failed to embed recipe", zap.String("recipe", recipe.Name), zap.Error(err))
		return
	}
	recipe.Embedding = &vec
}

// CreateRecipe creates a new recipe
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}
	recipe.Category = normalizeCategory(recipe.Category)
	s.embed(ctx, recipe)

	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	s.logger.Info("Recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("kind", recipe.Kind))
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &recipe, nil
}

// UpdateRecipe applies the non-zero fields of req. Only the owner or an admin may update.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor Actor, id uuid.UUID, req *types.RecipeRequest) (*models.Recipe, error) {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(recipe.UserID) {
		return nil, ErrForbidden
	}

	reembed := false
	if req.Kind != "" {
		recipe.Kind = req.Kind
	}
	if req.Name != "" {
		recipe.Name = strings.TrimSpace(req.Name)
		reembed = true
	}
	if req.Description != "" {
		recipe.Description = req.Description
		reembed = true
	}
	if req.Category != "" {
		recipe.Category = normalizeCategory(req.Category)
	}
	if req.Cuisine != "" {
		recipe.Cuisine = req.Cuisine
	}
	if req.ImageURL != "" {
		recipe.ImageURL = req.ImageURL
	}
	if req.Servings > 0 {
		recipe.Servings = req.Servings
	}
	if req.PrepMinutes > 0 {
		recipe.PrepMinutes = req.PrepMinutes
	}
	if req.CookMinutes > 0 {
		recipe.CookMinutes = req.CookMinutes
	}
	if req.Difficulty != "" {
		recipe.Difficulty = req.Difficulty
	}
	if len(req.Ingredients) > 0 {
		recipe.Ingredients = models.IngredientList(req.Ingredients)
		reembed = true
	}
	if len(req.Instructions) > 0 {
		recipe.Instructions = models.JSONBStringArray(req.Instructions)
	}
	if req.Tags != nil {
		recipe.Tags = models.JSONBStringArray(req.Tags)
	}
	if req.Calories > 0 {
		recipe.Calories = req.Calories
	}
	if req.Protein > 0 {
		recipe.Protein = req.Protein
	}
	if req.Carbs > 0 {
		recipe.Carbs = req.Carbs
	}
	if req.Fat > 0 {
		recipe.Fat = req.Fat
	}

	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}
	if reembed {
		s.embed(ctx, recipe)
	}
	if err := s.db.WithContext(ctx).Save(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return recipe, nil
}

// DeleteRecipe soft-deletes a recipe. Only the owner or an admin may delete.
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor Actor, id uuid.UUID) error {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if !actor.owns(recipe.UserID) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&models.Recipe{}, "id = ?", id).Error
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// likePattern lower-cases and escapes user text for a LIKE match.
func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func (s *RecipeService) filtered(ctx context.Context, filter models.RecipeFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	ingredients := "LOWER(ingredients)"
	if s.db.Dialector.Name() == "postgres" {
		ingredients = "LOWER(ingredients::text)"
	}
	for _, excluded := range filter.Exclude {
		if strings.TrimSpace(excluded) == "" {
			continue
		}
		query = query.Where(ingredients+` NOT LIKE ? ESCAPE '\'`, likePattern(excluded))
	}
	return query
}

// ListRecipes returns one page of recipes matching filter, newest first, and
// the total number of matches.
func (s *RecipeService) ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error) {
	var total int64
	if err := s.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	var recipes []models.Recipe
	err := s.filtered(ctx, filter).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// SearchRecipes ranks recipes by embedding distance on PostgreSQL and falls
// back to a text match elsewhere.
func (s *RecipeService) SearchRecipes(ctx context.Context, query string, limit int) ([]models.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}
	limit, _ = pageBounds(limit, 0)

	if s.embedder != nil && s.db.Dialector.Name() == "postgres" {
		vec, err := s.embedder.GenerateEmbedding(ctx, query)
		if err == nil {
			var recipes []models.Recipe
			err = s.db.WithContext(ctx).
				Where("embedding IS NOT NULL").
				Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}}}).
				Limit(limit).
				Find(&recipes).Error
			if err == nil {
				return recipes, nil
			}
		}
		s.logger.Warn("Semantic search failed, falling back to text search", zap.Error(err))
	}

	recipes, _, err := s.ListRecipes(ctx, models.RecipeFilter{Search: query, Limit: limit})
	return recipes, err
}

// FavoriteRecipe saves a recipe for the user. Saving twice is a no-op.
func (s *RecipeService) FavoriteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return err
	}
	favorite := models.RecipeFavorite{UserID: userID, RecipeID: recipeID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&favorite).Error
}

// UnfavoriteRecipe removes a saved recipe. Removing an unsaved recipe is a no-op.
func (s *RecipeService) UnfavoriteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.RecipeFavorite{}).Error
}

// GetFavoriteRecipes returns the user's saved recipes, most recently saved first.
func (s *RecipeService) GetFavoriteRecipes(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Joins("JOIN recipe_favorites ON recipe_favorites.recipe_id = recipes.id").
		Where("recipe_favorites.user_id = ?", userID).
		Order("recipe_favorites.created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// RateRecipe records or replaces the user's 1-5 score and refreshes the
// recipe's average and count.
func (s *RecipeService) RateRecipe(ctx context.Context, userID, recipeID uuid.UUID, score int, comment string) (*models.Recipe, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidInput)
	}
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rating models.RecipeRating
		err := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).First(&rating).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = models.RecipeRating{UserID: userID, RecipeID: recipeID, Score: score, Comment: comment}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&rating).Updates(map[string]interface{}{"score": score, "comment": comment}).Error; err != nil {
				return err
			}
		}

		var agg struct {
			Average float64
			Count   int
		}
		if err := tx.Model(&models.RecipeRating{}).
			Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
			Where("recipe_id = ?", recipeID).
			Scan(&agg).Error; err != nil {
			return err
		}
		// UpdateColumns keeps updated_at, so cached renders stay valid.
		return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).
			UpdateColumns(map[string]interface{}{"average_rating": agg.Average, "rating_count": agg.Count}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rate recipe: %w", err)
	}
	return s.GetRecipe(ctx, recipeID)
}

// RenderRecipe scales and formats a recipe for display, caching the result.
func (s *RecipeService) RenderRecipe(ctx context.Context, id uuid.UUID, servings int, system recipeutil.System) (*recipeutil.Rendered, error) {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if servings <= 0 {
		servings = recipe.Servings
	}

	key := RenderCacheKey(recipe.ID, recipe.UpdatedAt, servings, system)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	rendered := recipeutil.Render(recipe.RenderInput(), servings, system)
	s.cache.Set(ctx, key, &rendered)
	return &rendered, nil
}
