package coupon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds resolved coupons under a short TTL so hot codes skip Postgres.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

const cachePrefix = "coupon:"

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached coupon for a code, reporting whether it was present.
func (c *Cache) Get(ctx context.Context, code string) (Coupon, bool, error) {
	if c == nil || c.client == nil {
		return Coupon{}, false, nil
	}
	data, err := c.client.Get(ctx, cachePrefix+NormalizeCode(code)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Coupon{}, false, nil
		}
		return Coupon{}, false, err
	}
	var coupon Coupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return Coupon{}, false, err
	}
	return coupon, true, nil
}

// Set stores a resolved coupon.
func (c *Cache) Set(ctx context.Context, coupon Coupon) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(coupon)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cachePrefix+NormalizeCode(coupon.Code), data, c.ttl).Err()
}

// Invalidate drops the cached entry for a code after an admin write.
func (c *Cache) Invalidate(ctx context.Context, code string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cachePrefix+NormalizeCode(code)).Err()
}
