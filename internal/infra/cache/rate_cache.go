package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/redis/go-redis/v9"
)

const ratesKey = "mortgage:rates:current"

// RateCache keeps the current rate table in Redis.
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRateCache(client *redis.Client, ttl time.Duration) *RateCache {
	return &RateCache{client: client, ttl: ttl}
}

func (c *RateCache) Get(ctx context.Context) ([]entity.Rate, bool, error) {
	data, err := c.client.Get(ctx, ratesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rates []entity.Rate
	if err := json.Unmarshal(data, &rates); err != nil {
		// a corrupt entry is treated as a miss and overwritten on the next Set
		return nil, false, nil
	}
	return rates, true, nil
}

func (c *RateCache) Set(ctx context.Context, rates []entity.Rate) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ratesKey, data, c.ttl).Err()
}

func (c *RateCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, ratesKey).Err()
}

// NoopRateCache always misses. It is used when no Redis address is configured.
type NoopRateCache struct{}

func (NoopRateCache) Get(context.Context) ([]entity.Rate, bool, error) { return nil, false, nil }
func (NoopRateCache) Set(context.Context, []entity.Rate) error         { return nil }
func (NoopRateCache) Invalidate(context.Context) error                 { return nil }
