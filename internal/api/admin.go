package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/service"
)

// AdminHandler serves the dashboard and user administration.
type AdminHandler struct {
	dashboardService *service.DashboardService
	authService      *service.AuthService
}

func NewAdminHandler(dashboard *service.DashboardService, auth *service.AuthService) *AdminHandler {
	return &AdminHandler{dashboardService: dashboard, authService: auth}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", middleware.AuthMiddleware(h.authService), middleware.RequireAdmin())
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/top-rated", h.TopRated)
		admin.POST("/users/:id/promote", h.PromoteUser)
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) TopRated(c *gin.Context) {
	recipes, err := h.dashboardService.TopRated(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recipes})
}

func (h *AdminHandler) PromoteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.authService.PromoteUser(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
