package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
)

const draftTTL = 24 * time.Hour

// Macros represents nutritional macros information
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// RecipeDraft is a generated recipe awaiting publication.
type RecipeDraft struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	Kind         string                  `json:"kind"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	Cuisine      string                  `json:"cuisine"`
	Difficulty   string                  `json:"difficulty"`
	Servings     int                     `json:"servings"`
	PrepMinutes  int                     `json:"prep_minutes"`
	CookMinutes  int                     `json:"cook_minutes"`
	Ingredients  []recipeutil.Ingredient `json:"ingredients"`
	Instructions []string                `json:"instructions"`
	Tags         []string                `json:"tags"`
	ImageURL     string                  `json:"image_url,omitempty"`
	Macros
}

// ToRecipe converts the draft into an unsaved recipe.
func (d *RecipeDraft) ToRecipe(userID uuid.UUID) *models.Recipe {
	return &models.Recipe{
		Kind:         d.Kind,
		Name:         d.Name,
		Description:  d.Description,
		Category:     d.Category,
		Cuisine:      d.Cuisine,
		Difficulty:   d.Difficulty,
		ImageURL:     d.ImageURL,
		Servings:     d.Servings,
		PrepMinutes:  d.PrepMinutes,
		CookMinutes:  d.CookMinutes,
		Ingredients:  models.IngredientList(d.Ingredients),
		Instructions: models.JSONBStringArray(d.Instructions),
		Tags:         models.JSONBStringArray(d.Tags),
		Calories:     d.Calories,
		Protein:      d.Protein,
		Carbs:        d.Carbs,
		Fat:          d.Fat,
		UserID:       userID,
	}
}

// Preferences steer generation away from what the user cannot eat.
type Preferences struct {
	Dietary   []string
	Allergens []string
}

// looseInt accepts 4, 4.0, "4" or "4 servings".
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = looseInt(recipeutil.ParseQuantity(v))
	return nil
}

// generatedRecipe is the JSON shape requested from the model.
type generatedRecipe struct {
	Kind         string                  `json:"kind"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	Cuisine      string                  `json:"cuisine"`
	Difficulty   string                  `json:"difficulty"`
	Servings     looseInt                `json:"servings"`
	PrepMinutes  looseInt                `json:"prep_minutes"`
	CookMinutes  looseInt                `json:"cook_minutes"`
	Ingredients  []recipeutil.Ingredient `json:"ingredients"`
	Instructions []string                `json:"instructions"`
	Tags         []string                `json:"tags"`
	Macros
}

const recipeSystemPrompt = `You are a professional chef and nutritionist. Reply with a single JSON object:
{
  "kind": "recipe or cocktail",
  "name": "Recipe name",
  "description": "Brief description",
  "category": "e.g. Breakfast, Main Course, Dessert, Cocktail",
  "cuisine": "e.g. Italian, Mexican, Fusion",
  "difficulty": "Easy, Medium or Hard",
  "servings": 4,
  "prep_minutes": 10,
  "cook_minutes": 20,
  "ingredients": [
    {"name": "flour", "metric": {"quantity": 250, "unit": "g"}, "us": {"quantity": "2", "unit": "cups"}},
    {"name": "milk", "metric": {"quantity": 300, "unit": "ml"}, "us": {"quantity": "1 1/4", "unit": "cups"}},
    {"name": "salt", "metric": {"quantity": "a pinch", "unit": ""}, "us": {"quantity": "a pinch", "unit": ""}}
  ],
  "instructions": ["Preheat the oven to [temp:180:350].", "..."],
  "tags": ["quick"],
  "calories": 350, "protein": 15, "carbs": 45, "fat": 12
}
Every ingredient needs both a metric and a US measure. Write every temperature as [temp:CELSIUS:FAHRENHEIT].
Macros are per serving and must be numbers.`

// LLMService generates recipes with a TextGenerator and keeps drafts in Redis.
type LLMService struct {
	generator TextGenerator
	redis     *redis.Client
	recipes   *RecipeService
	logger    *zap.Logger
}

// NewLLMService creates a new LLMService instance. Without a Redis client
// drafts cannot be stored and the draft operations return ErrUnavailable.
func NewLLMService(generator TextGenerator, redisClient *redis.Client, recipes *RecipeService, logger *zap.Logger) *LLMService {
	return &LLMService{
		generator: generator,
		redis:     redisClient,
		recipes:   recipes,
		logger:    logger,
	}
}

func draftKey(id string) string {
	return fmt.Sprintf("recipe:draft:%s", id)
}

func recipePrompt(query string, prefs Preferences, original *RecipeDraft) (string, error) {
	var b strings.Builder
	if original != nil {
		data, err := json.Marshal(original)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Modify this recipe:\n%s\n\nModification request: %s", data, query)
	} else {
		fmt.Fprintf(&b, "Generate a recipe for: %s", query)
	}
	if len(prefs.Dietary) > 0 {
		b.WriteString("\nThe recipe must be suitable for: " + strings.Join(prefs.Dietary, ", "))
	}
	if len(prefs.Allergens) > 0 {
		b.WriteString("\nNever use: " + strings.Join(prefs.Allergens, ", "))
	}
	return b.String(), nil
}

// GenerateRecipe asks the model for a recipe, or for a modification of
// original. The returned draft is not stored.
func (s *LLMService) GenerateRecipe(ctx context.Context, query string, prefs Preferences, original *RecipeDraft) (*RecipeDraft, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no text generator configured", ErrUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}

	prompt, err := recipePrompt(query, prefs, original)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	content, err := s.generator.Complete(ctx, []Message{
		{Role: RoleSystem, Content: recipeSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}, true)
	if err != nil {
		return nil, err
	}

	var gen generatedRecipe
	if err := json.Unmarshal([]byte(extractJSON(content)), &gen); err != nil {
		s.logger.Warn("Model returned malformed recipe", zap.String("content", content), zap.Error(err))
		return nil, fmt.Errorf("%w: malformed recipe from model", ErrUnavailable)
	}
	if strings.TrimSpace(gen.Name) == "" || len(gen.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: model returned an incomplete recipe", ErrUnavailable)
	}

	draft := &RecipeDraft{
		Kind:         gen.Kind,
		Name:         strings.TrimSpace(gen.Name),
		Description:  gen.Description,
		Category:     gen.Category,
		Cuisine:      gen.Cuisine,
		Difficulty:   gen.Difficulty,
		Servings:     int(gen.Servings),
		PrepMinutes:  int(gen.PrepMinutes),
		CookMinutes:  int(gen.CookMinutes),
		Ingredients:  gen.Ingredients,
		Instructions: gen.Instructions,
		Tags:         gen.Tags,
		Macros:       gen.Macros,
	}
	if !models.IsKind(draft.Kind) {
		draft.Kind = models.KindRecipe
	}
	if draft.Servings <= 0 {
		draft.Servings = 1
	}
	if original != nil {
		draft.ID = original.ID
		draft.UserID = original.UserID
		draft.CreatedAt = original.CreatedAt
		draft.ImageURL = original.ImageURL
	}

	if draft.Macros == (Macros{}) {
		macros, err := s.CalculateMacros(ctx, draft.Ingredients)
		if err != nil {
			s.logger.Warn("Failed to calculate macros", zap.String("recipe", draft.Name), zap.Error(err))
		} else {
			draft.Macros = *macros
		}
	}
	return draft, nil
}

// CalculateMacros estimates per-ingredient-list macros.
func (s *LLMService) CalculateMacros(ctx context.Context, ingredients []recipeutil.Ingredient) (*Macros, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no text generator configured", ErrUnavailable)
	}
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: no ingredients", ErrInvalidInput)
	}
	lines := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lines[i] = recipeutil.FormatIngredient(ing, recipeutil.Metric)
	}

	content, err := s.generator.Complete(ctx, []Message{
		{Role: RoleSystem, Content: `You are a nutrition expert. Respond only with JSON like {"calories":0,"protein":0,"carbs":0,"fat":0}`},
		{Role: RoleUser, Content: "Provide an approximate macronutrient breakdown for:\n" + strings.Join(lines, "\n")},
	}, true)
	if err != nil {
		return nil, err
	}

	var macros Macros
	if err := json.Unmarshal([]byte(extractJSON(content)), &macros); err != nil {
		return nil, fmt.Errorf("failed to parse macros: %w", err)
	}
	return &macros, nil
}

// extractJSON strips markdown fences some models wrap around JSON.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}

func (s *LLMService) requireRedis() error {
	if s.redis == nil {
		return fmt.Errorf("%w: draft storage is not configured", ErrUnavailable)
	}
	return nil
}

func (s *LLMService) writeDraft(ctx context.Context, draft *RecipeDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(draft.ID), data, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to save draft to Redis: %w", err)
	}
	return nil
}

// SaveDraft stores a new draft under a fresh ID.
func (s *LLMService) SaveDraft(ctx context.Context, draft *RecipeDraft) error {
	if err := s.requireRedis(); err != nil {
		return err
	}
	draft.ID = uuid.New().String()
	draft.CreatedAt = time.Now()
	draft.UpdatedAt = draft.CreatedAt
	return s.writeDraft(ctx, draft)
}

// GetDraft retrieves a recipe draft from Redis
func (s *LLMService) GetDraft(ctx context.Context, id string) (*RecipeDraft, error) {
	if err := s.requireRedis(); err != nil {
		return nil, err
	}
	data, err := s.redis.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get draft from Redis: %w", err)
	}

	var draft RecipeDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

// UpdateDraft rewrites an existing draft and refreshes its TTL.
func (s *LLMService) UpdateDraft(ctx context.Context, draft *RecipeDraft) error {
	if err := s.requireRedis(); err != nil {
		return err
	}
	if draft.ID == "" {
		return fmt.Errorf("%w: draft has no id", ErrInvalidInput)
	}
	draft.UpdatedAt = time.Now()
	return s.writeDraft(ctx, draft)
}

// DeleteDraft removes a recipe draft from Redis
func (s *LLMService) DeleteDraft(ctx context.Context, id string) error {
	if err := s.requireRedis(); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft from Redis: %w", err)
	}
	return nil
}

// OwnedDraft loads a draft and checks it belongs to userID.
func (s *LLMService) OwnedDraft(ctx context.Context, userID uuid.UUID, id string) (*RecipeDraft, error) {
	draft, err := s.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID.String() {
		return nil, ErrForbidden
	}
	return draft, nil
}

// Query generates a new draft, or modifies draftID when it is set, and stores the result.
func (s *LLMService) Query(ctx context.Context, userID uuid.UUID, query, draftID string, prefs Preferences) (*RecipeDraft, error) {
	if err := s.requireRedis(); err != nil {
		return nil, err
	}

	var original *RecipeDraft
	if draftID != "" {
		var err error
		if original, err = s.OwnedDraft(ctx, userID, draftID); err != nil {
			return nil, err
		}
	}

	draft, err := s.GenerateRecipe(ctx, query, prefs, original)
	if err != nil {
		return nil, err
	}

	if original != nil {
		err = s.UpdateDraft(ctx, draft)
	} else {
		draft.UserID = userID.String()
		err = s.SaveDraft(ctx, draft)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Recipe draft stored",
		zap.String("draft_id", draft.ID),
		zap.String("user_id", userID.String()),
		zap.Bool("modified", original != nil))
	return draft, nil
}

// PublishDraft turns a draft into a recipe and removes the draft.
func (s *LLMService) PublishDraft(ctx context.Context, userID uuid.UUID, draftID string) (*models.Recipe, error) {
	draft, err := s.OwnedDraft(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	recipe, err := s.recipes.CreateRecipe(ctx, draft.ToRecipe(userID))
	if err != nil {
		return nil, err
	}
	if err := s.DeleteDraft(ctx, draftID); err != nil {
		s.logger.Warn("Published draft could not be removed", zap.String("draft_id", draftID), zap.Error(err))
	}
	return recipe, nil
}
