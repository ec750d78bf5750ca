package statcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, ttl), mr
}

func TestCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if got, err := cache.Get(ctx, 1); err != nil || got != nil {
		t.Fatalf("expected miss on empty cache, got %+v err=%v", got, err)
	}

	want := &Summary{Total: 3, Completed: 2, Pending: 1, CompletionRate: 67}
	if err := cache.Set(ctx, 1, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || *got != *want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	// 其他用户的键互不影响。
	if other, err := cache.Get(ctx, 2); err != nil || other != nil {
		t.Fatalf("expected miss for other user, got %+v err=%v", other, err)
	}
}

func TestCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := cache.Set(ctx, 1, &Summary{Total: 1, Pending: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got, err := cache.Get(ctx, 1); err != nil || got != nil {
		t.Fatalf("expected miss after invalidate, got %+v err=%v", got, err)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	if err := cache.Set(ctx, 1, &Summary{Total: 1, Pending: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if got, err := cache.Get(ctx, 1); err != nil || got != nil {
		t.Fatalf("expected miss after ttl, got %+v err=%v", got, err)
	}
}

func TestCache_NilClientIsNoop(t *testing.T) {
	cache := New(nil, time.Minute)
	ctx := context.Background()

	if err := cache.Set(ctx, 1, &Summary{Total: 1}); err != nil {
		t.Fatalf("set on nil client: %v", err)
	}
	if got, err := cache.Get(ctx, 1); err != nil || got != nil {
		t.Fatalf("get on nil client: %+v err=%v", got, err)
	}
	if err := cache.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate on nil client: %v", err)
	}
}
