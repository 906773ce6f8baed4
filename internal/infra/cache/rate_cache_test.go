package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateCache(client, ttl), mr
}

func TestRateCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	rates := []entity.Rate{{Term: 30, Type: "fixed", Rate: 6.75, APR: 6.87, Points: 0.5}}
	require.NoError(t, c.Set(ctx, rates))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rates[0].Rate, got[0].Rate)
	assert.Equal(t, "30-Year Fixed", got[0].DisplayTerm())
}

func TestRateCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []entity.Rate{{Term: 15, Type: "fixed"}}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []entity.Rate{{Term: 15, Type: "fixed"}}))
	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(ratesKey))
}

func TestRateCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	require.NoError(t, mr.Set(ratesKey, "{not json"))

	_, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	mr.Close()

	_, _, err := c.Get(context.Background())
	assert.Error(t, err)
}
