package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
)

const maxUploadBytes = 5 << 20

// LLMHandler serves recipe generation, drafts and recipe images.
type LLMHandler struct {
	llmService   *service.LLMService
	imageService *service.ImageService
	authService  *service.AuthService
	creation     gin.HandlerFunc
	modification gin.HandlerFunc
}

func NewLLMHandler(llm *service.LLMService, images *service.ImageService, auth *service.AuthService, creation, modification *middleware.RateLimiter) *LLMHandler {
	return &LLMHandler{
		llmService:   llm,
		imageService: images,
		authService:  auth,
		creation:     creation.Middleware(),
		modification: modification.Middleware(),
	}
}

func (h *LLMHandler) RegisterRoutes(router *gin.RouterGroup) {
	llm := router.Group("/llm", middleware.AuthMiddleware(h.authService))
	{
		llm.POST("/query", h.limitByIntent, h.Query)
		llm.GET("/drafts/:id", h.GetDraft)
		llm.DELETE("/drafts/:id", h.DeleteDraft)
		llm.POST("/drafts/:id/publish", h.PublishDraft)
		llm.POST("/drafts/:id/image", h.GenerateImage)
	}
	router.POST("/images", middleware.AuthMiddleware(h.authService), h.UploadImage)
}

// limitByIntent charges generate calls to the creation budget and
// modifications to the modification budget.
func (h *LLMHandler) limitByIntent(c *gin.Context) {
	var req types.LLMQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set("llm_request", req)
	if req.DraftID != "" {
		h.modification(c)
		return
	}
	h.creation(c)
}

func (h *LLMHandler) Query(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := c.MustGet("llm_request").(types.LLMQueryRequest)
	if req.Intent == "modify" && req.DraftID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "draft_id is required to modify a recipe"})
		return
	}

	var prefs service.Preferences
	if user, err := h.authService.GetUserByID(c.Request.Context(), userID); err == nil {
		prefs = service.Preferences{Dietary: user.DietaryPreferences, Allergens: user.Allergens}
	}

	draft, err := h.llmService.Query(c.Request.Context(), userID, req.Query, req.DraftID, prefs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft_id": draft.ID, "recipe": draft})
}

func (h *LLMHandler) GetDraft(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	draft, err := h.llmService.OwnedDraft(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *LLMHandler) DeleteDraft(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if _, err := h.llmService.OwnedDraft(c.Request.Context(), userID, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.llmService.DeleteDraft(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LLMHandler) PublishDraft(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipe, err := h.llmService.PublishDraft(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *LLMHandler) GenerateImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	draft, err := h.llmService.OwnedDraft(ctx, userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	url, err := h.imageService.GenerateRecipeImage(ctx, draft)
	if err != nil {
		_ = c.Error(err)
		return
	}
	draft.ImageURL = url
	if err := h.llmService.UpdateDraft(ctx, draft); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// UploadImage stores a user supplied picture from the "image" form field.
func (h *LLMHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 5MB"})
		return
	}
	file, err := header.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		_ = c.Error(err)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.imageService.UploadImage(c.Request.Context(), data, contentType)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image_url": url})
}
