package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hsmarket/storefront/config"
	"github.com/hsmarket/storefront/pkg/logger"
	"github.com/hsmarket/storefront/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// Redis is the go-redis backed Store.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Driver() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil || json.Unmarshal(val, dest) != nil {
		metrics.CacheMisses.WithLabelValues(r.Driver()).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(r.Driver()).Inc()
	return true
}

func (r *Redis) Has(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Connect pings Redis at REDIS_ADDR and returns it, or falls back to an
// in-process store with a warning when Redis is unreachable.
func Connect(ctx context.Context) Store {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("cache: redis unavailable, using in-memory store",
			"addr", config.RedisAddr(), "error", fmt.Errorf("cache: redis ping: %w", err))
		return NewMemory()
	}
	return NewRedis(client)
}
