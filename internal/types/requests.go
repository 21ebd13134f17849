package types

import (
	"github.com/google/uuid"

	"github.com/pageza/savorly/backend/internal/recipeutil"
)

type RegisterRequest struct {
	Email              string   `json:"email" binding:"required,email"`
	Password           string   `json:"password" binding:"required,min=8"`
	Username           string   `json:"username" binding:"required,min=3,max=50"`
	PreferredSystem    string   `json:"preferred_system"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Allergens          []string `json:"allergens"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RecipeRequest is the body of create and update recipe calls. On update,
// zero values leave the stored field unchanged.
type RecipeRequest struct {
	Kind         string                  `json:"kind"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	Cuisine      string                  `json:"cuisine"`
	ImageURL     string                  `json:"image_url"`
	Servings     int                     `json:"servings"`
	PrepMinutes  int                     `json:"prep_minutes"`
	CookMinutes  int                     `json:"cook_minutes"`
	Difficulty   string                  `json:"difficulty"`
	Ingredients  []recipeutil.Ingredient `json:"ingredients"`
	Instructions []string                `json:"instructions"`
	Tags         []string                `json:"tags"`
	Calories     float64                 `json:"calories"`
	Protein      float64                 `json:"protein"`
	Carbs        float64                 `json:"carbs"`
	Fat          float64                 `json:"fat"`
}

type RateRecipeRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type LLMQueryRequest struct {
	Query   string `json:"query" binding:"required"`
	Intent  string `json:"intent"` // generate or modify
	DraftID string `json:"draft_id"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required,max=4000"`
}

type ProductRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	PriceCents  int64      `json:"price_cents" binding:"min=0"`
	Currency    string     `json:"currency"`
	Stock       int        `json:"stock" binding:"min=0"`
	ImageURL    string     `json:"image_url"`
	RecipeID    *uuid.UUID `json:"recipe_id"`
	Active      *bool      `json:"active"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type NewsletterIssueRequest struct {
	Subject string `json:"subject" binding:"required,max=255"`
	Body    string `json:"body" binding:"required"`
}

// Feedback API types
type CreateFeedbackRequest struct {
	Type        string `json:"type" binding:"required,oneof=bug feature general"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required,max=2000"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	UserAgent   string `json:"user_agent"`
	URL         string `json:"url"`
}

type UpdateFeedbackStatusRequest struct {
	Status     string `json:"status" binding:"required,oneof=open in_progress resolved closed"`
	AdminNotes string `json:"admin_notes"`
}
