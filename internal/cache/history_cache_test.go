package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/model"
)

func newTestCache(t *testing.T) *HistoryCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHistoryCache(client, time.Minute)
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hit)

	entries := []model.QueryHistory{
		{ID: 2, UserID: 1, Question: "q2", Answer: "a2"},
		{ID: 1, UserID: 1, Question: "q1", Answer: "a1"},
	}
	require.NoError(t, c.Set(ctx, 1, entries))

	got, hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, entries, got)
}

func TestHistoryCacheInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, []model.QueryHistory{{ID: 1, UserID: 1}}))
	require.NoError(t, c.Invalidate(ctx, 1))

	_, hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestHistoryCacheScopedPerUser(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, []model.QueryHistory{{ID: 1, UserID: 1}}))

	_, hit, err := c.Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}
