package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/pageza/savorly/backend/internal/recipeutil"
)

const renderCacheTTL = time.Hour

// RenderCache keeps rendered recipes in Redis as msgpack. A nil cache or a
// cache without a client is a no-op.
type RenderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRenderCache(client *redis.Client, logger *zap.Logger) *RenderCache {
	return &RenderCache{client: client, ttl: renderCacheTTL, logger: logger}
}

// RenderCacheKey includes the update time in microseconds, the precision
// postgres stores, so every edit changes the key.
func RenderCacheKey(id uuid.UUID, updatedAt time.Time, servings int, system recipeutil.System) string {
	return fmt.Sprintf("recipe:render:%s:%d:%d:%s", id, updatedAt.UnixMicro(), servings, system)
}

func (c *RenderCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *RenderCache) Get(ctx context.Context, key string) (*recipeutil.Rendered, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Render cache read failed", zap.String("key", key), zap.Error(err))
		}
		renderCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}

	var rendered recipeutil.Rendered
	if err := msgpack.Unmarshal(data, &rendered); err != nil {
		c.logger.Warn("Discarding undecodable render cache entry", zap.String("key", key), zap.Error(err))
		renderCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	renderCacheRequests.WithLabelValues("hit").Inc()
	return &rendered, true
}

func (c *RenderCache) Set(ctx context.Context, key string, rendered *recipeutil.Rendered) {
	if !c.enabled() {
		return
	}
	data, err := msgpack.Marshal(rendered)
	if err != nil {
		c.logger.Warn("Failed to encode rendered recipe", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Render cache write failed", zap.String("key", key), zap.Error(err))
	}
}
