package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache is a read-through redis cache for resolved rates. All methods are
// best-effort: a cache failure never blocks resolution.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(from, to string, on time.Time) string {
	return fmt.Sprintf("fx:%s:%s:%s", from, to, on.Format("2006-01-02"))
}

func (c *Cache) Get(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, bool) {
	if c == nil || c.client == nil {
		return decimal.Zero, false
	}
	raw, err := c.client.Get(ctx, cacheKey(from, to, on)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return rate, true
}

func (c *Cache) Set(ctx context.Context, from, to string, on time.Time, rate decimal.Decimal) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(from, to, on), rate.String(), c.ttl).Err()
}
