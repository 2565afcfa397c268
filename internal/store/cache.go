package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"menza/internal/models"
)

const canteenListKey = "canteens"

// CachedStore decorates a Store with a Redis read-through cache for canteen
// lookups. Canteens are read on every reservation attempt but change rarely,
// so they are the only cached entity. All writes pass through and invalidate.
type CachedStore struct {
	Store

	redis *redis.Client
	ttl   time.Duration
}

// NewCachedStore wraps inner with Redis caching.
func NewCachedStore(inner Store, redisClient *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: inner, redis: redisClient, ttl: ttl}
}

func (c *CachedStore) GetCanteen(ctx context.Context, id string) (*models.Canteen, error) {
	key := canteenKey(id)
	var cached models.Canteen
	if c.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	canteen, err := c.Store.GetCanteen(ctx, id)
	if err != nil || canteen == nil {
		return canteen, err
	}
	c.writeCache(ctx, key, canteen)
	return canteen, nil
}

func (c *CachedStore) ListCanteens(ctx context.Context) ([]models.Canteen, error) {
	var cached []models.Canteen
	if c.readCache(ctx, canteenListKey, &cached) {
		return cached, nil
	}

	canteens, err := c.Store.ListCanteens(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, canteenListKey, canteens)
	return canteens, nil
}

func (c *CachedStore) AddCanteen(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	out, err := c.Store.AddCanteen(ctx, canteen)
	if err == nil {
		c.invalidate(ctx, canteenListKey)
	}
	return out, err
}

func (c *CachedStore) UpdateCanteen(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	out, err := c.Store.UpdateCanteen(ctx, canteen)
	if err == nil {
		c.invalidate(ctx, canteenKey(canteen.ID), canteenListKey)
	}
	return out, err
}

func (c *CachedStore) DeleteCanteen(ctx context.Context, id string) error {
	err := c.Store.DeleteCanteen(ctx, id)
	if err == nil {
		c.invalidate(ctx, canteenKey(id), canteenListKey)
	}
	return err
}

func canteenKey(id string) string {
	return fmt.Sprintf("canteen:%s", id)
}

func (c *CachedStore) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *CachedStore) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, keys...).Err()
}
