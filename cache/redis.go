// Package cache is a small JSON cache over Redis. A nil *Cache is valid and
// behaves as a cache that always misses, so callers never branch on whether
// Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-buildmart/metrics"
)

// Cache stores JSON values under a key prefix.
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string, ttl time.Duration) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return New(rdb, ttl), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, prefix: "buildmart:", ttl: ttl}
}

// Client exposes the underlying client, or nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Get loads key into dest. It reports false on miss or error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		metrics.CacheResults.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheResults.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheResults.WithLabelValues("hit").Inc()
	return true
}

// Set stores value under key for the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

// Invalidate removes every key starting with prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
