// Package cache is a thin JSON cache over Redis. Every call is a no-op when
// Redis is not configured, so callers never branch on it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurant-backend/internal/config"
	"restaurant-backend/internal/metrics"

	"github.com/redis/go-redis/v9"
)

var (
	RDB *redis.Client
	TTL = 10 * time.Minute
)

// ErrDisabled is returned by Ping when Redis is not configured.
var ErrDisabled = errors.New("redis is not configured")

func Ping(ctx context.Context) error {
	if RDB == nil {
		return ErrDisabled
	}
	return RDB.Ping(ctx).Err()
}

// Connect initialises the client and pings it. On failure RDB stays nil.
func Connect(cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		return nil
	}
	if cfg.TTL > 0 {
		TTL = cfg.TTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Get unmarshals the cached value into dest and reports a hit.
func Get(ctx context.Context, key string, dest any) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.Inc()
		return false
	}
	metrics.CacheHits.Inc()
	return true
}

func Set(ctx context.Context, key string, value any) error {
	if RDB == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(ctx, key, data, TTL).Err()
}

func Del(ctx context.Context, keys ...string) error {
	if RDB == nil || len(keys) == 0 {
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// DelPrefix removes every key starting with prefix.
func DelPrefix(ctx context.Context, prefix string) error {
	if RDB == nil {
		return nil
	}

	iter := RDB.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return Del(ctx, keys...)
}

func Close() error {
	if RDB == nil {
		return nil
	}
	err := RDB.Close()
	RDB = nil
	return err
}
