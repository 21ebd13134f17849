package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	authService     *service.AuthService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedback *service.FeedbackService, auth *service.AuthService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedback, authService: auth}
}

// RegisterRoutes registers feedback routes
func (h *FeedbackHandler) RegisterRoutes(router *gin.RouterGroup) {
	feedback := router.Group("/feedback")
	feedback.POST("", middleware.OptionalAuth(h.authService), h.CreateFeedback)

	admin := feedback.Group("", middleware.AuthMiddleware(h.authService), middleware.RequireAdmin())
	{
		admin.GET("", h.ListFeedback)
		admin.GET("/:id", h.GetFeedback)
		admin.PATCH("/:id", h.UpdateStatus)
	}
}

// CreateFeedback accepts feedback from anyone; signed-in users are recorded.
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req types.CreateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	var userID *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}

	fb, err := h.feedbackService.CreateFeedback(c.Request.Context(), &req, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Feedback submitted successfully", "feedback": fb})
}

// ListFeedback lists feedback with optional type, status and priority filters
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	filters := models.FeedbackFilters{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}
	items, err := h.feedbackService.ListFeedback(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fb, err := h.feedbackService.GetFeedback(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.UpdateFeedbackStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	fb, err := h.feedbackService.UpdateStatus(c.Request.Context(), id, req.Status, req.AdminNotes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, fb)
}
