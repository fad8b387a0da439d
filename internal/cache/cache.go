package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/typeboard/typeboard/internal/domain"
)

// ErrNamespaceRequired is returned when a cache call has no namespace.
var ErrNamespaceRequired = errors.New("namespace is required")

// New creates a cache based on configuration.
// memory: in-process LRU.
// redis with two-phase: LRU in front of Redis.
// redis: Redis only.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(cfg)
		}
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// GetJSON reads a JSON value. found is false on a miss.
func GetJSON(ctx context.Context, c domain.Cache, namespace, key string, v any) (found bool, err error) {
	data, err := c.Get(ctx, namespace, key)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON.
func SetJSON(ctx context.Context, c domain.Cache, namespace, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	return c.Set(ctx, namespace, key, data, ttl)
}

// TwoPhaseCache puts an LRU in front of Redis.
// Reads try the local tier first and fill it from Redis on a miss; writes go
// to both. A local copy is only refreshed when it expires, so namespaces whose
// values are rewritten from any node (sessions) are marked shared and always
// go straight to Redis.
type TwoPhaseCache struct {
	local  *LRUCache
	remote *RedisCache
	l1TTL  time.Duration
	shared map[string]bool
}

// NewTwoPhaseCache creates a two-phase cache with LRU + Redis.
func NewTwoPhaseCache(cfg domain.CacheConfig) (*TwoPhaseCache, error) {
	remote, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}
	return newTwoPhase(NewLRUCache(cfg.LocalMaxSize), remote, cfg.LocalTTL, cfg.SharedNamespaces...), nil
}

func newTwoPhase(local *LRUCache, remote *RedisCache, l1TTL time.Duration, shared ...string) *TwoPhaseCache {
	if l1TTL == 0 {
		l1TTL = 5 * time.Minute
	}
	c := &TwoPhaseCache{local: local, remote: remote, l1TTL: l1TTL, shared: make(map[string]bool, len(shared))}
	for _, ns := range shared {
		c.shared[ns] = true
	}
	return c
}

// Shared reports whether namespace bypasses the local tier.
func (c *TwoPhaseCache) Shared(namespace string) bool {
	return c.shared[namespace]
}

// Get retrieves from L1 first, then L2. Populates L1 on L2 hit.
func (c *TwoPhaseCache) Get(ctx context.Context, namespace string, key string) ([]byte, error) {
	if c.shared[namespace] {
		return c.remote.Get(ctx, namespace, key)
	}

	val, err := c.local.Get(ctx, namespace, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		return val, nil
	}

	val, err = c.remote.Get(ctx, namespace, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		_ = c.local.Set(ctx, namespace, key, val, c.l1TTL)
	}

	return val, nil
}

// Set writes to both L1 and L2, or to L2 alone for shared namespaces.
func (c *TwoPhaseCache) Set(ctx context.Context, namespace string, key string, value []byte, ttl time.Duration) error {
	if c.shared[namespace] {
		return c.remote.Set(ctx, namespace, key, value, ttl)
	}

	// L1 never outlives L2
	l1TTL := c.l1TTL
	if ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.local.Set(ctx, namespace, key, value, l1TTL); err != nil {
		return err
	}

	return c.remote.Set(ctx, namespace, key, value, ttl)
}

// Delete removes from both L1 and L2.
// Other nodes keep their local copy of a non-shared key until it expires.
func (c *TwoPhaseCache) Delete(ctx context.Context, namespace string, key string) error {
	if err := c.local.Delete(ctx, namespace, key); err != nil {
		return err
	}
	return c.remote.Delete(ctx, namespace, key)
}

// IncrementCounter uses Redis only so every node sees the same count.
func (c *TwoPhaseCache) IncrementCounter(ctx context.Context, namespace string, key string, window time.Duration) (int64, error) {
	return c.remote.IncrementCounter(ctx, namespace, key, window)
}

// Ping checks both L1 and L2 health.
func (c *TwoPhaseCache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return fmt.Errorf("L1 ping failed: %w", err)
	}
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("L2 ping failed: %w", err)
	}
	return nil
}

// Close closes both L1 and L2.
func (c *TwoPhaseCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}

// Stats returns L1 cache statistics.
func (c *TwoPhaseCache) Stats() LocalStats {
	return c.local.Stats()
}
