package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/typeboard/typeboard/internal/domain"
)

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(100)
	ctx := context.Background()
	namespace := "session"

	t.Run("SetAndGet", func(t *testing.T) {
		err := cache.Set(ctx, namespace, "key1", []byte("value1"), time.Minute)
		if err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := cache.Get(ctx, namespace, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", string(val))
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		val, err := cache.Get(ctx, namespace, "nonexistent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for cache miss, got: %v", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, namespace, "key2", []byte("value2"), time.Minute)

		err := cache.Delete(ctx, namespace, "key2")
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		val, _ := cache.Get(ctx, namespace, "key2")
		if val != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		_ = cache.Set(ctx, namespace, "expiring", []byte("temp"), 10*time.Millisecond)

		// Should be available immediately
		val, _ := cache.Get(ctx, namespace, "expiring")
		if val == nil {
			t.Error("expected value before expiration")
		}

		// Wait for expiration
		time.Sleep(20 * time.Millisecond)

		val, _ = cache.Get(ctx, namespace, "expiring")
		if val != nil {
			t.Error("expected nil after expiration")
		}
	})

	t.Run("LRUEviction", func(t *testing.T) {
		smallCache := NewLRUCache(3)

		_ = smallCache.Set(ctx, namespace, "a", []byte("1"), time.Minute)
		_ = smallCache.Set(ctx, namespace, "b", []byte("2"), time.Minute)
		_ = smallCache.Set(ctx, namespace, "c", []byte("3"), time.Minute)

		// Access 'a' to make it recently used
		_, _ = smallCache.Get(ctx, namespace, "a")

		// Add 'd' - should evict 'b' (oldest accessed)
		_ = smallCache.Set(ctx, namespace, "d", []byte("4"), time.Minute)

		// 'b' should be evicted
		val, _ := smallCache.Get(ctx, namespace, "b")
		if val != nil {
			t.Error("expected 'b' to be evicted")
		}

		// 'a' should still be there
		val, _ = smallCache.Get(ctx, namespace, "a")
		if val == nil {
			t.Error("expected 'a' to still exist")
		}
	})

	t.Run("NamespaceIsolation", func(t *testing.T) {
		_ = cache.Set(ctx, "session", "shared-key", []byte("session-value"), time.Minute)
		_ = cache.Set(ctx, "throttle", "shared-key", []byte("throttle-value"), time.Minute)

		val1, _ := cache.Get(ctx, "session", "shared-key")
		val2, _ := cache.Get(ctx, "throttle", "shared-key")

		if string(val1) != "session-value" {
			t.Errorf("expected 'session-value', got '%s'", string(val1))
		}
		if string(val2) != "throttle-value" {
			t.Errorf("expected 'throttle-value', got '%s'", string(val2))
		}
	})

	t.Run("RequiresNamespace", func(t *testing.T) {
		err := cache.Set(ctx, "", "key", []byte("value"), time.Minute)
		if !errors.Is(err, ErrNamespaceRequired) {
			t.Errorf("expected ErrNamespaceRequired, got %v", err)
		}

		_, err = cache.Get(ctx, "", "key")
		if !errors.Is(err, ErrNamespaceRequired) {
			t.Errorf("expected ErrNamespaceRequired, got %v", err)
		}

		_, err = cache.IncrementCounter(ctx, "", "key", time.Minute)
		if !errors.Is(err, ErrNamespaceRequired) {
			t.Errorf("expected ErrNamespaceRequired, got %v", err)
		}
	})

	t.Run("IncrementCounter", func(t *testing.T) {
		window := 100 * time.Millisecond

		count1, err := cache.IncrementCounter(ctx, namespace, "export", window)
		if err != nil {
			t.Fatalf("IncrementCounter failed: %v", err)
		}
		if count1 != 1 {
			t.Errorf("expected count 1, got %d", count1)
		}

		count2, _ := cache.IncrementCounter(ctx, namespace, "export", window)
		if count2 != 2 {
			t.Errorf("expected count 2, got %d", count2)
		}

		// Wait for window to expire
		time.Sleep(150 * time.Millisecond)

		count3, _ := cache.IncrementCounter(ctx, namespace, "export", window)
		if count3 != 1 {
			t.Errorf("expected count 1 after window reset, got %d", count3)
		}
	})

	t.Run("JSONHelpers", func(t *testing.T) {
		type state struct {
			Locale string `json:"locale"`
			Years  []int  `json:"years"`
		}
		in := state{Locale: "ko", Years: []int{2023, 2024}}

		if err := SetJSON(ctx, cache, namespace, "json", in, time.Minute); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}

		var out state
		found, err := GetJSON(ctx, cache, namespace, "json", &out)
		if err != nil || !found {
			t.Fatalf("GetJSON failed: found=%v err=%v", found, err)
		}
		if out.Locale != "ko" || len(out.Years) != 2 {
			t.Errorf("unexpected value %+v", out)
		}

		found, err = GetJSON(ctx, cache, namespace, "absent", &out)
		if err != nil || found {
			t.Errorf("expected miss, got found=%v err=%v", found, err)
		}

		_ = cache.Set(ctx, namespace, "garbage", []byte("{"), time.Minute)
		if _, err := GetJSON(ctx, cache, namespace, "garbage", &out); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("CounterPruning", func(t *testing.T) {
		small := NewLRUCache(2)
		_, _ = small.IncrementCounter(ctx, namespace, "a", time.Millisecond)
		_, _ = small.IncrementCounter(ctx, namespace, "b", time.Millisecond)
		time.Sleep(5 * time.Millisecond)

		_, _ = small.IncrementCounter(ctx, namespace, "c", time.Minute)
		if n := small.Stats().Counters; n != 1 {
			t.Errorf("expected expired counters to be pruned, %d remain", n)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		statsCache := NewLRUCache(2)
		_ = statsCache.Set(ctx, namespace, "k1", []byte("v1"), time.Minute)
		_ = statsCache.Set(ctx, namespace, "k2", []byte("v2"), time.Minute)
		_, _ = statsCache.Get(ctx, namespace, "k1")
		_, _ = statsCache.Get(ctx, namespace, "missing")
		_ = statsCache.Set(ctx, namespace, "k3", []byte("v3"), time.Minute)

		want := LocalStats{Entries: 2, Capacity: 2, Hits: 1, Misses: 1, Evictions: 1}
		if diff := cmp.Diff(want, statsCache.Stats()); diff != "" {
			t.Errorf("stats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ClockDrivenExpiry", func(t *testing.T) {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c := NewLRUCache(10)
		c.now = func() time.Time { return clock }

		_ = c.Set(ctx, namespace, "k", []byte("v"), time.Minute)
		clock = clock.Add(59 * time.Second)
		if val, _ := c.Get(ctx, namespace, "k"); string(val) != "v" {
			t.Errorf("expected value inside ttl, got %q", val)
		}
		clock = clock.Add(time.Second)
		if val, _ := c.Get(ctx, namespace, "k"); val != nil {
			t.Errorf("expected expiry at ttl, got %q", val)
		}
		if c.Stats().Entries != 0 {
			t.Error("expected expired entry to be dropped")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := cache.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		testCache := NewLRUCache(10)
		_ = testCache.Set(ctx, namespace, "k", []byte("v"), time.Minute)

		err := testCache.Close()
		if err != nil {
			t.Errorf("Close failed: %v", err)
		}

		// Cache should be empty after close
		val, _ := testCache.Get(ctx, namespace, "k")
		if val != nil {
			t.Error("expected cache to be cleared after close")
		}
	})
}

func TestNewCache(t *testing.T) {
	t.Run("MemoryType", func(t *testing.T) {
		cfg := domain.CacheConfig{
			Type:         "memory",
			LocalMaxSize: 100,
		}

		cache, err := New(cfg)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer cache.Close()

		_, ok := cache.(*LRUCache)
		if !ok {
			t.Error("expected LRUCache for memory type")
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		cfg := domain.CacheConfig{
			Type: "memcached",
		}

		_, err := New(cfg)
		if err == nil {
			t.Error("expected error for unsupported type")
		}
	})
}

// TestRedisCache runs against a live server when TYPEBOARD_TEST_REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TYPEBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TYPEBOARD_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := New(domain.CacheConfig{Type: "redis", RedisAddr: addr, EnableTwoPhase: true, LocalMaxSize: 10, LocalTTL: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "session", "redis-key", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, err := c.Get(ctx, "session", "redis-key")
	if err != nil || string(val) != "v" {
		t.Errorf("unexpected value %q (%v)", val, err)
	}
	_ = c.Delete(ctx, "session", "redis-key")

	key := "counter-" + time.Now().Format(time.RFC3339Nano)
	n1, _ := c.IncrementCounter(ctx, "throttle", key, time.Minute)
	n2, _ := c.IncrementCounter(ctx, "throttle", key, time.Minute)
	if n1 != 1 || n2 != 2 {
		t.Errorf("expected 1, 2 got %d, %d", n1, n2)
	}
}

func TestTwoPhaseSharedNamespaces(t *testing.T) {
	c := newTwoPhase(NewLRUCache(10), nil, time.Second, domain.SessionNamespace)
	if !c.Shared(domain.SessionNamespace) {
		t.Error("expected session namespace to bypass the local tier")
	}
	if c.Shared(domain.ThrottleNamespace) {
		t.Error("expected throttle namespace to use the local tier")
	}

	cfg := domain.ClusterConfig().Cache
	if diff := cmp.Diff([]string{domain.SessionNamespace}, cfg.SharedNamespaces); diff != "" {
		t.Errorf("cluster shared namespaces mismatch (-want +got):\n%s", diff)
	}
}

// TestTwoPhaseAcrossNodes writes on one node and reads on another against a
// live server when TYPEBOARD_TEST_REDIS_ADDR is set.
func TestTwoPhaseAcrossNodes(t *testing.T) {
	addr := os.Getenv("TYPEBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TYPEBOARD_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cfg := domain.ClusterConfig().Cache
	cfg.RedisAddr = addr

	nodeA, err := NewTwoPhaseCache(cfg)
	if err != nil {
		t.Fatalf("node A: %v", err)
	}
	defer nodeA.Close()
	nodeB, err := NewTwoPhaseCache(cfg)
	if err != nil {
		t.Fatalf("node B: %v", err)
	}
	defer nodeB.Close()

	key := "cross-node-" + time.Now().Format(time.RFC3339Nano)
	defer nodeA.Delete(ctx, domain.SessionNamespace, key)

	if err := nodeA.Set(ctx, domain.SessionNamespace, key, []byte(`{"pages":{"jobs":"INTJ"}}`), time.Minute); err != nil {
		t.Fatalf("Set on A failed: %v", err)
	}
	if val, _ := nodeB.Get(ctx, domain.SessionNamespace, key); string(val) != `{"pages":{"jobs":"INTJ"}}` {
		t.Fatalf("unexpected first read on B: %q", val)
	}

	if err := nodeA.Set(ctx, domain.SessionNamespace, key, []byte(`{"pages":{"jobs":"ENTP"}}`), time.Minute); err != nil {
		t.Fatalf("second Set on A failed: %v", err)
	}
	if val, _ := nodeB.Get(ctx, domain.SessionNamespace, key); string(val) != `{"pages":{"jobs":"ENTP"}}` {
		t.Errorf("node B served a stale session: %q", val)
	}
	if nodeB.Stats().Entries != 0 {
		t.Error("expected sessions to stay out of the local tier")
	}
}
