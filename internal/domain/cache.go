package domain

import (
	"context"
	"time"
)

// Cache namespaces.
const (
	// SessionNamespace holds per-visitor page and filter selections.
	SessionNamespace = "session"

	// ThrottleNamespace holds windowed request counters.
	ThrottleNamespace = "throttle"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local LRU (standalone) + Redis (cluster).
// Keys are scoped by namespace so sessions and counters never collide.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, namespace string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, namespace string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, namespace string, key string) error

	// IncrementCounter atomically increments a counter and returns new value.
	// The counter resets once window has elapsed since its first increment.
	IncrementCounter(ctx context.Context, namespace string, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string `env:"TYPE"`

	// Local LRU cache settings
	LocalMaxSize int           `env:"LOCAL_MAX_SIZE"`
	LocalTTL     time.Duration `env:"LOCAL_TTL"`

	// Redis settings
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// Two-phase settings
	EnableTwoPhase bool `env:"TWO_PHASE"` // If true, check local first, then Redis

	// SharedNamespaces never use the local tier. Values in them change on any
	// node, so every read goes to Redis.
	SharedNamespaces []string `env:"SHARED_NAMESPACES" envSeparator:","`
}
