package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
)

type RecipeHandler struct {
	recipeService *service.RecipeService
	authService   *service.AuthService
	creation      *middleware.RateLimiter
	modification  *middleware.RateLimiter
}

func NewRecipeHandler(recipes *service.RecipeService, auth *service.AuthService, creation, modification *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipes,
		authService:   auth,
		creation:      creation,
		modification:  modification,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/search", h.SearchRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.GET("/:id/render", middleware.OptionalAuth(h.authService), h.RenderRecipe)

		recipes.POST("", requireAuth, h.creation.Middleware(), h.CreateRecipe)
		recipes.PUT("/:id", requireAuth, h.modification.Middleware(), h.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", requireAuth, h.UnfavoriteRecipe)
		recipes.POST("/:id/rating", requireAuth, h.RateRecipe)
	}
	router.GET("/favorites", requireAuth, h.GetFavorites)
}

type listResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := models.RecipeFilter{
		Kind:     c.Query("kind"),
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Limit:    queryInt(c, "limit", 20),
		Offset:   queryInt(c, "offset", 0),
	}
	if raw := c.Query("exclude"); raw != "" {
		filter.Exclude = strings.Split(raw, ",")
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &id
	}

	recipes, total, err := h.recipeService.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Recipe]{Items: recipes, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	recipes, err := h.recipeService.SearchRecipes(c.Request.Context(), query, queryInt(c, "limit", 10))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// RenderRecipe formats a recipe for the requested servings and unit system.
// Without ?system= a signed-in user gets their preferred system.
func (h *RecipeHandler) RenderRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	raw := c.Query("system")
	if raw == "" {
		if userID, ok := middleware.UserID(c); ok {
			if user, err := h.authService.GetUserByID(c.Request.Context(), userID); err == nil {
				raw = user.PreferredSystem
			}
		}
	}
	system, ok := recipeutil.ParseSystem(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "system must be metric or us"})
		return
	}

	servings := queryInt(c, "servings", 0)
	if servings < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "servings must be positive"})
		return
	}

	rendered, err := h.recipeService.RenderRecipe(c.Request.Context(), id, servings, system)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rendered)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), service.RecipeFromRequest(userID, &req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), actor(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.FavoriteRecipe(c.Request.Context(), userID, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": true})
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.UnfavoriteRecipe(c.Request.Context(), userID, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": false})
}

func (h *RecipeHandler) GetFavorites(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipes, err := h.recipeService.GetFavoriteRecipes(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recipes})
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipeService.RateRecipe(c.Request.Context(), userID, id, req.Score, req.Comment)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}
