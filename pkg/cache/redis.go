package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the Redis-backed Service implementation. All keys are
// namespaced under a prefix so several deployments can share one instance.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and verifies connectivity with a ping.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 5,
		Prefix:       "riskpulse",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{rdb: rdb, prefix: cfg.Prefix}, nil
}

// Client exposes the raw connection for components that need Redis
// primitives beyond the Service interface (the job queue).
func (r *RedisCache) Client() *redis.Client { return r.rdb }

func (r *RedisCache) Close() error { return r.rdb.Close() }

// Set stores value under key. Strings go in as-is; everything else is
// JSON-encoded.
func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encodeCacheValue(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(key), data, expiration).Err()
}

// Get loads key into dest, returning ErrCacheMiss when absent. A *string
// dest receives the raw payload without JSON decoding.
func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if sp, ok := dest.(*string); ok {
		*sp = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	for i := range keys {
		keys[i] = r.key(keys[i])
	}
	// Unlink frees memory off the main thread
	return r.rdb.Unlink(ctx, keys...).Err()
}

// TryLock takes a best-effort distributed lock. It never blocks: the
// return value says whether this caller won.
func (r *RedisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, r.key(key), "locked", ttl).Result()
}

// Unlock releases a lock taken with TryLock. Releasing an already-expired
// lock is not an error.
func (r *RedisCache) Unlock(ctx context.Context, key string) error {
	err := r.rdb.Del(ctx, r.key(key)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (r *RedisCache) key(k string) string { return r.prefix + ":" + k }

func encodeCacheValue(value interface{}) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}
