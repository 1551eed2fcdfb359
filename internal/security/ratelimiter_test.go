package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/ordersync/internal/cache"
)

func TestRateLimiterWindow(t *testing.T) {
	ctx := context.Background()
	limiter, err := NewRateLimiter(cache.NewStore(cache.Options{}), 2, time.Minute)
	require.NoError(t, err)

	first, err := limiter.Allow(ctx, "seller-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.Allow(ctx, "seller-1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Allow(ctx, "seller-1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.True(t, third.ResetAt.After(time.Now().Add(-time.Second)))

	other, err := limiter.Allow(ctx, "seller-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	limiter.Reset(ctx, "seller-1")
	again, err := limiter.Allow(ctx, "seller-1")
	require.NoError(t, err)
	assert.True(t, again.Allowed)
}

func TestNewRateLimiterValidates(t *testing.T) {
	_, err := NewRateLimiter(nil, 1, time.Minute)
	assert.Error(t, err)
	_, err = NewRateLimiter(cache.NewStore(cache.Options{}), 0, time.Minute)
	assert.Error(t, err)

	var nilLimiter *RateLimiter
	_, err = nilLimiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}
