package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheServiceWithClient(rdb, nil), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Name: "alice", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got payload
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "alice" || got.Count != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestGetMissLeavesDestinationUntouched(t *testing.T) {
	c, _ := newTestCache(t)
	got := payload{Name: "unchanged"}
	if err := c.Get(context.Background(), "absent", &got); err != nil {
		t.Fatalf("Get on miss should not error: %v", err)
	}
	if got.Name != "unchanged" {
		t.Fatalf("miss must not mutate destination: %+v", got)
	}
}

func TestDel(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	if err := c.Set(ctx, "k", payload{Name: "x"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	var got payload
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "" {
		t.Fatalf("expected miss after delete, got %+v", got)
	}
}

func TestSetTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	if err := c.Set(ctx, "k", payload{Name: "x"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	var got payload
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "" {
		t.Fatalf("expected expiry after TTL, got %+v", got)
	}
}
