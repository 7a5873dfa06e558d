package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestMemory(t *testing.T, size int) (*MemoryCache, *clock) {
	t.Helper()
	mc := NewMemoryCache(WithMemoryMaxSize(size), WithMemoryCleanup(0), WithMemoryDefaultTTL(time.Hour))
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc.now = clk.now
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clk
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, 10)

	if _, err := mc.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	val := []byte("payload")
	if err := mc.Set(ctx, "k", val, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val[0] = 'X'
	got, err := mc.Get(ctx, "k")
	if err != nil || string(got) != "payload" {
		t.Fatalf("get: %q %v", got, err)
	}
	if ok, _ := mc.Exists(ctx, "k"); !ok {
		t.Fatalf("exists should be true")
	}
	_ = mc.Delete(ctx, "k")
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatalf("exists after delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t, 10)
	_ = mc.Set(ctx, "short", []byte("a"), time.Minute)
	_ = mc.Set(ctx, "default", []byte("b"), 0)

	clk.t = clk.t.Add(2 * time.Minute)
	if _, err := mc.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("short entry should have expired: %v", err)
	}
	if _, err := mc.Get(ctx, "default"); err != nil {
		t.Fatalf("default ttl entry should survive: %v", err)
	}

	clk.t = clk.t.Add(2 * time.Hour)
	mc.sweep()
	if mc.Len() != 0 {
		t.Fatalf("sweep left %d entries", mc.Len())
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t, 2)
	_ = mc.Set(ctx, "a", []byte("1"), 0)
	clk.t = clk.t.Add(time.Second)
	_ = mc.Set(ctx, "b", []byte("2"), 0)
	clk.t = clk.t.Add(time.Second)
	_, _ = mc.Get(ctx, "a")
	clk.t = clk.t.Add(time.Second)
	_ = mc.Set(ctx, "c", []byte("3"), 0)

	if _, err := mc.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, err := mc.Get(ctx, k); err != nil {
			t.Fatalf("%s should remain: %v", k, err)
		}
	}
}

func TestLayeredCacheBackfillsMemory(t *testing.T) {
	ctx := context.Background()
	remote, _ := newTestMemory(t, 10)
	lc := NewLayeredCache(remote, WithLayeredMemorySize(10))
	defer lc.memCache.Close()

	_ = remote.Set(ctx, "k", []byte("v"), time.Hour)
	got, err := lc.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("get through: %q %v", got, err)
	}
	_ = remote.Delete(ctx, "k")
	if got, err := lc.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("expected L1 hit after backfill: %q %v", got, err)
	}

	if err := lc.Set(ctx, "w", []byte("x"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ok, _ := remote.Exists(ctx, "w"); !ok {
		t.Fatalf("write-through missed remote")
	}
	_ = lc.Delete(ctx, "w")
	if ok, _ := lc.Exists(ctx, "w"); ok {
		t.Fatalf("delete should clear both layers")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, 10)
	type payload struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
	}
	if err := SetJSON(ctx, mc, "p", payload{Name: "baseline", Total: 7.5}, 0); err != nil {
		t.Fatalf("set json: %v", err)
	}
	got, err := GetJSON[payload](ctx, mc, "p")
	if err != nil || got.Name != "baseline" || got.Total != 7.5 {
		t.Fatalf("get json: %+v %v", got, err)
	}
	_ = mc.Set(ctx, "bad", []byte("{"), 0)
	if _, err := GetJSON[payload](ctx, mc, "bad"); err == nil || errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestHashKeyIsStable(t *testing.T) {
	a := HashKey("baseline", "0:48:1")
	if a != HashKey("baseline", "0:48:1") {
		t.Fatalf("hash not deterministic")
	}
	if a == HashKey("baseline0:48:1") || a == HashKey("baseline", "0:48:2") {
		t.Fatalf("distinct inputs collided")
	}
	if GenerateKey("run", "abc") != "run:abc" || GenerateKey("", "abc") != "abc" {
		t.Fatalf("generate key")
	}
}
