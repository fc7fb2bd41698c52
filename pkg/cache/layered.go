package cache

import (
	"context"
	"time"
)

// LayeredCache serves reads from a process-local layer backed by Redis.
// Writes go through to Redis first so other replicas converge.
type LayeredCache struct {
	mem         *MemoryCache
	redis       *RedisCache
	backfillTTL time.Duration
}

// NewLayeredCache creates a layered cache over the given Redis client.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		BackfillTTL:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		mem:         NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redis:       redisCache,
		backfillTTL: cfg.BackfillTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.redis.Get(ctx, key, dest); err != nil {
		return err
	}
	// Redis holds the authoritative expiry, which GETs don't report, so
	// the local copy gets only a short lease rather than the default.
	_ = lc.mem.Set(ctx, key, dest, lc.backfillTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

// TryLock and Unlock always go to Redis: the lock has to be visible to
// every replica, so the local layer never answers for it.
func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.redis.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.redis.Unlock(ctx, key)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
