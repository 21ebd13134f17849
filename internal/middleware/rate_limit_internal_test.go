package middleware

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLimiterDropsRefilledBuckets(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"}, zap.NewNop())
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		require.True(t, rl.allowLocalAt(fmt.Sprintf("user-%d", i), start).Allowed)
	}
	assert.Len(t, rl.local, 100)

	d := rl.allowLocalAt("late", start.Add(2*time.Hour))
	assert.True(t, d.Allowed)
	assert.Len(t, rl.local, 1)
	assert.Contains(t, rl.local, "late")
}

func TestLocalLimiterKeepsDrainedBuckets(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"}, zap.NewNop())
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, rl.allowLocalAt("busy", start).Allowed)
	assert.True(t, rl.allowLocalAt("busy", start.Add(time.Minute)).Allowed)
	assert.False(t, rl.allowLocalAt("busy", start.Add(2*time.Minute)).Allowed)

	// half a window later the bucket holds about one token
	rl.sweepLocked(start.Add(30 * time.Minute))
	require.Contains(t, rl.local, "busy")
	assert.True(t, rl.allowLocalAt("busy", start.Add(30*time.Minute)).Allowed)
	assert.False(t, rl.allowLocalAt("busy", start.Add(31*time.Minute)).Allowed)

	rl.sweepLocked(start.Add(3 * time.Hour))
	assert.NotContains(t, rl.local, "busy")
}
