package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter counts requests per user in fixed Redis windows. Without
// Redis, or when Redis fails, it falls back to in-process token buckets.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	logger *zap.Logger

	mu        sync.Mutex
	local     map[string]*rate.Limiter
	lastSweep time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		logger: logger,
		local:  make(map[string]*rate.Limiter),
	}
}

// NewRecipeCreationRateLimiter allows 5 creations per user per hour.
func NewRecipeCreationRateLimiter(redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     5,
		KeyPrefix: "rate_limit:recipe_creation",
	}, logger)
}

// NewRecipeModificationRateLimiter allows 10 modifications per user per hour.
func NewRecipeModificationRateLimiter(redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     10,
		KeyPrefix: "rate_limit:recipe_modification",
	}, logger)
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Allow counts one request for key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) Decision {
	if rl.redis != nil {
		d, err := rl.allowRedis(ctx, key)
		if err == nil {
			return d
		}
		rl.logger.Warn("Rate limit check failed, using local limiter", zap.String("limiter", rl.config.KeyPrefix), zap.Error(err))
	}
	return rl.allowLocal(key)
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string) (Decision, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     windowStart.Add(rl.config.Window),
	}, nil
}

func (rl *RateLimiter) allowLocal(key string) Decision {
	return rl.allowLocalAt(key, time.Now())
}

func (rl *RateLimiter) allowLocalAt(key string, now time.Time) Decision {
	rl.mu.Lock()
	if now.Sub(rl.lastSweep) >= rl.config.Window {
		rl.sweepLocked(now)
	}
	lim, ok := rl.local[key]
	if !ok {
		every := rl.config.Window / time.Duration(max(rl.config.Limit, 1))
		lim = rate.NewLimiter(rate.Every(every), rl.config.Limit)
		rl.local[key] = lim
	}
	rl.mu.Unlock()

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	missing := float64(rl.config.Limit) - tokens
	refill := time.Duration(missing / float64(lim.Limit()) * float64(time.Second))
	return Decision{
		Allowed:   allowed,
		Remaining: int(math.Max(math.Floor(tokens), 0)),
		Reset:     now.Add(refill),
	}
}

// sweepLocked drops buckets that have refilled completely; a full bucket
// behaves exactly like a new one.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, lim := range rl.local {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(rl.local, key)
		}
	}
	rl.lastSweep = now
}

// Middleware limits authenticated users; it must run after AuthMiddleware.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		d := rl.Allow(c.Request.Context(), userID.String())
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		if !d.Allowed {
			rateLimitRejections.WithLabelValues(rl.config.KeyPrefix).Inc()
			retryAfter := int(math.Ceil(time.Until(d.Reset).Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", rl.config.Limit, rl.config.Window),
				"retry_after": max(retryAfter, 1),
			})
			return
		}
		c.Next()
	}
}
