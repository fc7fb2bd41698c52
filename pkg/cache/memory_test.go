package cache

import (
	"context"
	"testing"
	"time"
)

type cachedSnapshot struct {
	Level     string  `json:"level"`
	Score     float64 `json:"score"`
	Indicator string  `json:"indicator"`
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := &cachedSnapshot{Level: "elevated", Score: 3.42, Indicator: "VIX"}
	if err := mc.Set(ctx, "snapshot", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out cachedSnapshot
	if err := mc.Get(ctx, "snapshot", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, *in)
	}
}

func TestMemoryCacheStringRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "greeting", "hello", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got string
	if err := mc.Get(ctx, "greeting", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out cachedSnapshot
	if err := mc.Get(context.Background(), "absent", &out); err != ErrCacheMiss {
		t.Errorf("got %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "ephemeral", "x", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	var got string
	if err := mc.Get(ctx, "ephemeral", &got); err != ErrCacheMiss {
		t.Errorf("got %v, want ErrCacheMiss after expiry", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:refresh", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock: ok=%v err=%v", ok, err)
	}
	ok, err = mc.TryLock(ctx, "lock:refresh", time.Minute)
	if err != nil {
		t.Fatalf("second TryLock: %v", err)
	}
	if ok {
		t.Error("second TryLock acquired a held lock")
	}

	if err := mc.Unlock(ctx, "lock:refresh"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ok, err = mc.TryLock(ctx, "lock:refresh", time.Minute)
	if err != nil || !ok {
		t.Errorf("TryLock after Unlock: ok=%v err=%v", ok, err)
	}
}

func TestLayeredBackfillTTL(t *testing.T) {
	lc := NewLayeredCache(nil)
	if lc.backfillTTL != 30*time.Second {
		t.Errorf("default backfill TTL = %v, want 30s", lc.backfillTTL)
	}

	lc = NewLayeredCache(nil, WithLayeredBackfillTTL(5*time.Second))
	if lc.backfillTTL != 5*time.Second {
		t.Errorf("backfill TTL = %v, want 5s", lc.backfillTTL)
	}
}
