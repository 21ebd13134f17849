package middleware_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/savorly/backend/internal/middleware"
	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/testhelpers"
	"github.com/pageza/savorly/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticValidator map[string]*types.TokenClaims

func (v staticValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("bad token")
}

var (
	userID    = uuid.New()
	adminID   = uuid.New()
	validator = staticValidator{
		"user-token":  {UserID: userID, Username: "cook", Role: models.RoleUser},
		"admin-token": {UserID: adminID, Username: "boss", Role: models.RoleAdmin},
	}
)

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", middleware.AuthMiddleware(validator), func(c *gin.Context) {
		id, ok := middleware.UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.String()+" "+c.GetString(middleware.ContextUsername))
	})
	r.GET("/admin", middleware.AuthMiddleware(validator), middleware.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodGet, "/me", "user-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+" cook", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "forged").Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token user-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "user-token").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", "admin-token").Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/feedback", middleware.OptionalAuth(validator), func(c *gin.Context) {
		if id, ok := middleware.UserID(c); ok {
			c.String(http.StatusOK, id.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/feedback", "").Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/feedback", "forged").Body.String())
	assert.Equal(t, userID.String(), serve(r, http.MethodGet, "/feedback", "user-token").Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))
	r.GET("/err/:kind", func(c *gin.Context) {
		switch c.Param("kind") {
		case "missing":
			_ = c.Error(service.ErrNotFound)
		case "wrapped":
			_ = c.Error(fmt.Errorf("%w: servings must be positive", service.ErrInvalidInput))
		case "conflict":
			_ = c.Error(service.ErrConflict)
		case "boom":
			_ = c.Error(errors.New("connection refused to 10.0.0.5"))
		default:
			c.Status(http.StatusNoContent)
		}
	})

	tests := []struct {
		kind   string
		status int
		body   string
	}{
		{"missing", http.StatusNotFound, `{"error":"not found"}`},
		{"wrapped", http.StatusBadRequest, `{"error":"invalid input: servings must be positive"}`},
		{"conflict", http.StatusConflict, `{"error":"conflict"}`},
		{"boom", http.StatusInternalServerError, `{"error":"internal server error"}`},
		{"none", http.StatusNoContent, ``},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			w := serve(r, http.MethodGet, "/err/"+tt.kind, "")
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}

	assert.Equal(t, http.StatusServiceUnavailable, middleware.StatusFor(service.ErrUnavailable))
	assert.Equal(t, http.StatusUnauthorized, middleware.StatusFor(service.ErrInvalidCredentials))
	assert.Equal(t, http.StatusForbidden, middleware.StatusFor(fmt.Errorf("wrap: %w", service.ErrForbidden)))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Recovery(zap.NewNop()), middleware.Metrics(), middleware.RequestLogger(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"http://localhost:5173"}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func rateLimitedRouter(limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.POST("/recipes", middleware.AuthMiddleware(validator), limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestRateLimiterLocalFallback(t *testing.T) {
	limiter := middleware.NewRateLimiter(nil, middleware.RateLimitConfig{
		Window: time.Hour, Limit: 2, KeyPrefix: "test",
	}, zap.NewNop())
	r := rateLimitedRouter(limiter)

	w := serve(r, http.MethodPost, "/recipes", "user-token")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/recipes", "user-token").Code)

	w = serve(r, http.MethodPost, "/recipes", "user-token")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// limits are per user
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/recipes", "admin-token").Code)
}

func TestRateLimiterRedis(t *testing.T) {
	rdb := testhelpers.NewRedis(t)
	limiter := middleware.NewRecipeCreationRateLimiter(rdb, zap.NewNop())
	r := rateLimitedRouter(limiter)

	for i := 0; i < 5; i++ {
		w := serve(r, http.MethodPost, "/recipes", "user-token")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, strconv.Itoa(4-i), w.Header().Get("X-RateLimit-Remaining"))
	}
	w := serve(r, http.MethodPost, "/recipes", "user-token")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	reset, err := strconv.ParseInt(w.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.LessOrEqual(t, reset, time.Now().Add(time.Hour).Unix())
}
