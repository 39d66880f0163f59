package cache

import (
	"context"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
)

// Cache holds JSON-encoded values scoped to a user. Values expire after the
// TTL the cache was built with, and InvalidateUser drops every value stored
// for that user.
//
// Each user has a generation that InvalidateUser advances. Callers read the
// generation before computing a value and pass it to Set; a value computed
// under an older generation is never served.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// it was present.
	Get(ctx context.Context, userID, key string, dst any) (bool, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, gen int64, key string, value any) error
	InvalidateUser(ctx context.Context, userID string) error
	Close() error
}

// DefaultTTL is used when a cache is built with a non-positive TTL.
const DefaultTTL = time.Minute

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

// New returns a RedisCache when a Redis host is configured and an in-memory
// Manager otherwise.
func New(cfg config.RedisConfig, ttl time.Duration) (Cache, error) {
	if !cfg.Enabled() {
		return NewManager(ttl), nil
	}
	c, err := NewRedisCache(cfg.Addr(), cfg.Password, ttl)
	if err != nil {
		return nil, err
	}
	return c, nil
}
