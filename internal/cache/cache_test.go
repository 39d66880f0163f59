package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
)

type payload struct {
	Days  int     `json:"days"`
	Total float64 `json:"total"`
}

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	user := "u-" + uuid.NewString()
	other := "o-" + uuid.NewString()

	var got payload
	ok, err := c.Get(ctx, user, "daily:14", &got)
	if err != nil || ok {
		t.Fatalf("empty Get = %v, %v", ok, err)
	}

	if err := c.Set(ctx, user, 0, "daily:14", payload{Days: 14, Total: 120.5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, other, 0, "daily:14", payload{Days: 14, Total: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ok, err = c.Get(ctx, user, "daily:14", &got)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got != (payload{Days: 14, Total: 120.5}) {
		t.Errorf("got %+v", got)
	}

	if err := c.InvalidateUser(ctx, user); err != nil {
		t.Fatalf("InvalidateUser: %v", err)
	}
	if ok, _ := c.Get(ctx, user, "daily:14", &got); ok {
		t.Error("value survived invalidation")
	}
	if ok, _ := c.Get(ctx, other, "daily:14", &got); !ok {
		t.Error("invalidation leaked to another user")
	}

	gen, err := c.Generation(ctx, user)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if err := c.InvalidateUser(ctx, user); err != nil {
		t.Fatalf("InvalidateUser: %v", err)
	}
	if err := c.Set(ctx, user, gen, "daily:14", payload{Days: 14}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, _ := c.Get(ctx, user, "daily:14", &got); ok {
		t.Error("value stored under a stale generation was served")
	}
}

func TestManager(t *testing.T) {
	exerciseCache(t, NewManager(time.Minute))
}

func TestStaleGenerationNotServed(t *testing.T) {
	ctx := context.Background()
	m := NewManager(time.Minute)

	gen, err := m.Generation(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.InvalidateUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, "u1", gen, "k", 1); err != nil {
		t.Fatal(err)
	}

	var v int
	if ok, _ := m.Get(ctx, "u1", "k", &v); ok {
		t.Error("value stored under a stale generation was served")
	}

	gen, _ = m.Generation(ctx, "u1")
	if err := m.Set(ctx, "u1", gen, "k", 2); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.Get(ctx, "u1", "k", &v); !ok || v != 2 {
		t.Errorf("current generation: ok=%v v=%d", ok, v)
	}
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	if err := m.Set(ctx, "u1", 0, "k", 42); err != nil {
		t.Fatal(err)
	}

	var v int
	now = now.Add(59 * time.Second)
	if ok, _ := m.Get(ctx, "u1", "k", &v); !ok || v != 42 {
		t.Errorf("before expiry: ok=%v v=%d", ok, v)
	}

	now = now.Add(time.Second)
	if ok, _ := m.Get(ctx, "u1", "k", &v); ok {
		t.Error("value returned after TTL")
	}
}

func TestNewWithoutRedisHost(t *testing.T) {
	c, err := New(config.RedisConfig{}, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, ok := c.(*Manager)
	if !ok {
		t.Fatalf("New returned %T, want *Manager", c)
	}
	if m.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", m.ttl, DefaultTTL)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	c, err := NewRedisCache(addr, os.Getenv("TEST_REDIS_PASSWORD"), time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	exerciseCache(t, c)
}
