// Package throttle provides windowed request counting on top of domain.Cache.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/typeboard/typeboard/internal/domain"
)

// Namespace is the cache namespace counters live in.
const Namespace = domain.ThrottleNamespace

// ErrKeyRequired is returned when Allow is called without a key.
var ErrKeyRequired = errors.New("throttle key is required")

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int64
	Window  time.Duration
}

// Limiter allows at most limit events per key in each fixed window.
// A limit of zero disables the check.
type Limiter struct {
	cache  domain.Cache
	action string
	limit  int64
	window time.Duration
}

// NewLimiter creates a limiter for one action such as "export".
func NewLimiter(cache domain.Cache, action string, limit int64, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		cache:  cache,
		action: action,
		limit:  limit,
		window: window,
	}
}

// Allow counts one event for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	d := Decision{Allowed: true, Limit: l.limit, Window: l.window}
	if l.limit <= 0 {
		return d, nil
	}
	if key == "" {
		return d, ErrKeyRequired
	}

	count, err := l.cache.IncrementCounter(ctx, Namespace, l.action+":"+key, l.window)
	if err != nil {
		return d, fmt.Errorf("failed to count %s: %w", l.action, err)
	}

	d.Count = count
	d.Allowed = count <= l.limit
	return d, nil
}

// Remaining returns how many events are left in the current window.
func (d Decision) Remaining() int64 {
	if d.Limit <= 0 || d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}
