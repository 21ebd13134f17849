package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/recipeutil"
)

// Recipe kinds share one table; cocktails use the same ingredient model.
const (
	KindRecipe   = "recipe"
	KindCocktail = "cocktail"
)

type Recipe struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
	Kind          string           `gorm:"size:20;not null;default:'recipe';index" json:"kind"`
	Name          string           `gorm:"size:255;not null" json:"name"`
	Description   string           `gorm:"type:text" json:"description"`
	Category      string           `gorm:"size:50;index" json:"category"`
	Cuisine       string           `gorm:"size:50" json:"cuisine"`
	ImageURL      string           `gorm:"size:512" json:"image_url"`
	Servings      int              `gorm:"not null;default:1" json:"servings"`
	PrepMinutes   int              `json:"prep_minutes"`
	CookMinutes   int              `json:"cook_minutes"`
	Difficulty    string           `gorm:"size:20" json:"difficulty"`
	Ingredients   IngredientList   `gorm:"type:jsonb;not null" json:"ingredients"`
	Instructions  JSONBStringArray `gorm:"type:jsonb;not null" json:"instructions"`
	Tags          JSONBStringArray `gorm:"type:jsonb" json:"tags"`
	Calories      float64          `gorm:"type:float" json:"calories"`
	Protein       float64          `gorm:"type:float" json:"protein"`
	Carbs         float64          `gorm:"type:float" json:"carbs"`
	Fat           float64          `gorm:"type:float" json:"fat"`
	AverageRating float64          `gorm:"type:float;not null;default:0" json:"average_rating"`
	RatingCount   int              `gorm:"not null;default:0" json:"rating_count"`
	Embedding     *pgvector.Vector `gorm:"type:vector" json:"-"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Kind == "" {
		r.Kind = KindRecipe
	}
	if r.Servings <= 0 {
		r.Servings = 1
	}
	return nil
}

// RenderInput adapts the stored recipe for recipeutil.Render.
func (r *Recipe) RenderInput() recipeutil.RenderInput {
	return recipeutil.RenderInput{
		Name:         r.Name,
		Servings:     r.Servings,
		Ingredients:  []recipeutil.Ingredient(r.Ingredients),
		Instructions: []string(r.Instructions),
	}
}

// EmbeddingText is the text used to embed the recipe for semantic search.
func (r *Recipe) EmbeddingText() string {
	text := r.Name + " " + r.Description
	for _, ing := range r.Ingredients {
		text += " " + ing.Name
	}
	return text
}

// IsKind reports whether kind is a known recipe kind.
func IsKind(kind string) bool {
	return kind == KindRecipe || kind == KindCocktail
}

type RecipeFavorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
}

func (RecipeFavorite) TableName() string {
	return "recipe_favorites"
}

func (f *RecipeFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// RecipeRating is one user's 1-5 score for a recipe.
type RecipeRating struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_recipe" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_recipe" json:"user_id"`
	Score     int       `gorm:"not null" json:"score"`
	Comment   string    `gorm:"type:text" json:"comment"`
}

func (RecipeRating) TableName() string {
	return "recipe_ratings"
}

func (r *RecipeRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeFilter narrows ListRecipes.
type RecipeFilter struct {
	Kind     string
	Category string
	UserID   *uuid.UUID
	Search   string
	Exclude  []string
	Limit    int
	Offset   int
}
