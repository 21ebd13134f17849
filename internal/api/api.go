// Package api exposes the services over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/database"
	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/service"
)

// Deps carries everything the handlers need. Redis may be nil.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Logger      *zap.Logger
	CORSOrigins []string

	Auth       *service.AuthService
	Recipes    *service.RecipeService
	LLM        *service.LLMService
	Chat       *service.ChatService
	Images     *service.ImageService
	Products   *service.ProductService
	Newsletter *service.NewsletterService
	Feedback   *service.FeedbackService
	Dashboard  *service.DashboardService
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestLogger(deps.Logger),
		middleware.Metrics(),
		middleware.CORS(deps.CORSOrigins),
		middleware.ErrorHandler(deps.Logger),
	)
	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Deps) {
	health := &HealthHandler{db: deps.DB, redis: deps.Redis}
	router.GET("/health", health.Check)
	router.GET("/api/health", health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	creation := middleware.NewRecipeCreationRateLimiter(deps.Redis, deps.Logger)
	modification := middleware.NewRecipeModificationRateLimiter(deps.Redis, deps.Logger)

	v1 := router.Group("/api/v1")
	NewAuthHandler(deps.Auth).RegisterRoutes(v1)
	NewRecipeHandler(deps.Recipes, deps.Auth, creation, modification).RegisterRoutes(v1)
	NewLLMHandler(deps.LLM, deps.Images, deps.Auth, creation, modification).RegisterRoutes(v1)
	NewChatHandler(deps.Chat, deps.Auth).RegisterRoutes(v1)
	NewProductHandler(deps.Products, deps.Auth).RegisterRoutes(v1)
	NewNewsletterHandler(deps.Newsletter, deps.Auth).RegisterRoutes(v1)
	NewFeedbackHandler(deps.Feedback, deps.Auth).RegisterRoutes(v1)
	NewAdminHandler(deps.Dashboard, deps.Auth).RegisterRoutes(v1)
}

// HealthHandler reports database and Redis reachability.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// Check returns the health status of the API
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok"}
	if err := database.HealthCheck(ctx, h.db); err != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = err.Error()
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			// drafts and chat degrade, the API stays up
			checks["redis"] = err.Error()
		}
	} else {
		checks["redis"] = "disabled"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"message": "Savorly API is running",
		"checks":  checks,
	})
}
