package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/types"
)

type NewsletterHandler struct {
	newsletterService *service.NewsletterService
	authService       *service.AuthService
}

func NewNewsletterHandler(newsletter *service.NewsletterService, auth *service.AuthService) *NewsletterHandler {
	return &NewsletterHandler{newsletterService: newsletter, authService: auth}
}

func (h *NewsletterHandler) RegisterRoutes(router *gin.RouterGroup) {
	newsletter := router.Group("/newsletter")
	{
		newsletter.POST("/subscribe", h.Subscribe)
		newsletter.GET("/unsubscribe/:token", h.Unsubscribe)
	}

	admin := newsletter.Group("", middleware.AuthMiddleware(h.authService), middleware.RequireAdmin())
	{
		admin.GET("/subscribers", h.ListSubscribers)
		admin.POST("/issues", h.CreateIssue)
		admin.POST("/issues/:id/send", h.SendIssue)
	}
}

func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req types.SubscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.newsletterService.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": sub.Email, "subscribed": true})
}

func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	if err := h.newsletterService.Unsubscribe(c.Request.Context(), c.Param("token")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": false})
}

func (h *NewsletterHandler) ListSubscribers(c *gin.Context) {
	subs, err := h.newsletterService.ListSubscribers(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": subs, "total": len(subs)})
}

func (h *NewsletterHandler) CreateIssue(c *gin.Context) {
	var req types.NewsletterIssueRequest
	if !bindJSON(c, &req) {
		return
	}
	issue, err := h.newsletterService.CreateIssue(c.Request.Context(), req.Subject, req.Body)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *NewsletterHandler) SendIssue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	issue, err := h.newsletterService.SendIssue(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, issue)
}
