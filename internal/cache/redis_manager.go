package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores values in Redis. Each user has a generation counter
// that is part of every value key; InvalidateUser bumps it so older values
// become unreachable and age out through their TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-based cache
func NewRedisCache(addr, password string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttlOrDefault(ttl),
	}, nil
}

func generationKey(userID string) string {
	return fmt.Sprintf("analysis:{%s}:gen", userID)
}

func valueKey(userID string, gen int64, key string) string {
	return fmt.Sprintf("analysis:{%s}:%d:%s", userID, gen, key)
}

// Generation returns the user's current generation
func (c *RedisCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get gets a value for a user
func (c *RedisCache) Get(ctx context.Context, userID, key string, dst any) (bool, error) {
	gen, err := c.Generation(ctx, userID)
	if err != nil {
		return false, err
	}

	data, err := c.client.Get(ctx, valueKey(userID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value under gen with the cache TTL. A value stored under a
// generation that was already bumped is never read back.
func (c *RedisCache) Set(ctx context.Context, userID string, gen int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, valueKey(userID, gen, key), data, c.ttl).Err()
}

// InvalidateUser makes every cached value of the user unreachable
func (c *RedisCache) InvalidateUser(ctx context.Context, userID string) error {
	return c.client.Incr(ctx, generationKey(userID)).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
