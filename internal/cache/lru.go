// Package cache provides the session and counter stores behind domain.Cache.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// slot addresses one value inside a namespace.
type slot struct {
	namespace string
	key       string
}

type item struct {
	slot    slot
	value   []byte
	expires time.Time
}

type window struct {
	count   int64
	expires time.Time
}

// LocalStats describes the in-process tier.
type LocalStats struct {
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	Counters  int    `json:"counters"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// LRUCache keeps sessions and throttle windows in process memory.
// It backs the standalone profile and is the local tier of TwoPhaseCache.
// Values past their TTL are dropped on the next access; once capacity is
// reached the least recently read value goes first.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	items    map[slot]*list.Element
	recency  *list.List // front = most recently used
	windows  map[slot]*window
	stats    LocalStats
	now      func() time.Time
}

// NewLRUCache creates a cache holding at most capacity values.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &LRUCache{
		capacity: capacity,
		items:    make(map[slot]*list.Element),
		recency:  list.New(),
		windows:  make(map[slot]*window),
		now:      time.Now,
	}
}

// Get returns the stored value, or nil when it is absent or expired.
func (c *LRUCache) Get(ctx context.Context, namespace string, key string) ([]byte, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[slot{namespace, key}]
	if !ok {
		c.stats.Misses++
		return nil, nil
	}
	it := el.Value.(*item)
	if !c.now().Before(it.expires) {
		c.drop(el)
		c.stats.Misses++
		return nil, nil
	}

	c.recency.MoveToFront(el)
	c.stats.Hits++
	return it.value, nil
}

// Set stores value for ttl, replacing any previous value.
func (c *LRUCache) Set(ctx context.Context, namespace string, key string, value []byte, ttl time.Duration) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := slot{namespace, key}
	expires := c.now().Add(ttl)
	if el, ok := c.items[s]; ok {
		it := el.Value.(*item)
		it.value, it.expires = value, expires
		c.recency.MoveToFront(el)
		return nil
	}

	c.items[s] = c.recency.PushFront(&item{slot: s, value: value, expires: expires})
	for c.recency.Len() > c.capacity {
		c.drop(c.recency.Back())
		c.stats.Evictions++
	}
	return nil
}

// Delete forgets a value. Deleting an absent key is not an error.
func (c *LRUCache) Delete(ctx context.Context, namespace string, key string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[slot{namespace, key}]; ok {
		c.drop(el)
	}
	return nil
}

// IncrementCounter counts one hit in the fixed window that opened with the
// first hit for this key.
func (c *LRUCache) IncrementCounter(ctx context.Context, namespace string, key string, period time.Duration) (int64, error) {
	if namespace == "" {
		return 0, ErrNamespaceRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := slot{namespace, key}
	w, ok := c.windows[s]
	if ok && now.Before(w.expires) {
		w.count++
		return w.count, nil
	}
	if !ok && len(c.windows) >= c.capacity {
		c.sweepWindows(now)
	}
	c.windows[s] = &window{count: 1, expires: now.Add(period)}
	return 1, nil
}

// Ping always succeeds.
func (c *LRUCache) Ping(ctx context.Context) error {
	return nil
}

// Close empties the cache. It stays usable afterwards.
func (c *LRUCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[slot]*list.Element)
	c.recency.Init()
	c.windows = make(map[slot]*window)
	return nil
}

// Stats reports occupancy and hit counts.
func (c *LRUCache) Stats() LocalStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Entries = c.recency.Len()
	st.Capacity = c.capacity
	st.Counters = len(c.windows)
	return st
}

// drop unlinks el. Caller holds mu.
func (c *LRUCache) drop(el *list.Element) {
	c.recency.Remove(el)
	delete(c.items, el.Value.(*item).slot)
}

// sweepWindows removes closed counter windows. Caller holds mu.
func (c *LRUCache) sweepWindows(now time.Time) {
	for s, w := range c.windows {
		if !now.Before(w.expires) {
			delete(c.windows, s)
		}
	}
}
