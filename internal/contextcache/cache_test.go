package contextcache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gshashi/mailpilot/internal/models"
)

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache

	c.Put(context.Background(), "conv-1", []models.Email{{ID: "m1"}})
	if got := c.Get(context.Background(), "conv-1"); got != nil {
		t.Errorf("nil cache returned %v", got)
	}
}

func TestCacheWithoutRedisIsSafe(t *testing.T) {
	c := New(nil, nil)

	c.Put(context.Background(), "conv-1", []models.Email{{ID: "m1"}})
	if got := c.Get(context.Background(), "conv-1"); got != nil {
		t.Errorf("redis-less cache returned %v", got)
	}
}

func TestKey(t *testing.T) {
	if got := key("abc"); got != "ctx:abc" {
		t.Errorf("key = %q", got)
	}
}

// TestCacheRoundTrip needs a running Redis; point REDIS_ADDR at one to run it.
func TestCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := New(rdb, nil)
	want := []models.Email{
		{ID: "m1", Subject: "First"},
		{ID: "m2", Subject: "Second"},
	}
	c.Put(ctx, "conv-test", want)

	got := c.Get(ctx, "conv-test")
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("snapshot = %v", got)
	}

	if extra := c.Get(ctx, "conv-unknown"); extra != nil {
		t.Errorf("unknown conversation returned %v", extra)
	}
}
