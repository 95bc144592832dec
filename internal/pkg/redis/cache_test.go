package redis

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewMemoryCache()
	c.Now = func() time.Time { return now }

	_ = c.Set(ctx, "k", "v", time.Minute)
	if v, _ := c.Get(ctx, "k"); v != "v" {
		t.Fatalf("Get() = %q, want v", v)
	}
	now = now.Add(time.Minute)
	if v, _ := c.Get(ctx, "k"); v != "" {
		t.Errorf("Get() after ttl = %q, want empty", v)
	}
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if ok, _ := c.TryLock(ctx, "lock", "a", time.Minute); !ok {
		t.Fatal("first TryLock() should succeed")
	}
	if ok, _ := c.TryLock(ctx, "lock", "b", time.Minute); ok {
		t.Fatal("second TryLock() should fail while held")
	}
	c.UnLock(ctx, "lock", "b")
	if ok, _ := c.TryLock(ctx, "lock", "b", time.Minute); ok {
		t.Error("UnLock() with a foreign value must not release the lock")
	}
	c.UnLock(ctx, "lock", "a")
	if ok, _ := c.TryLock(ctx, "lock", "b", time.Minute); !ok {
		t.Error("TryLock() after release should succeed")
	}
}
