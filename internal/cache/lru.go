// Package cache memoizes upstream answers for Preflight. The process-local
// LRU serves single-replica deployments; Redis, alone or behind the LRU,
// shares answers across replicas.
package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"
)

var errEmptyKey = errors.New("cache key is required")

// Stats describes the occupancy and effectiveness of an LRUCache.
type Stats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// LRUCache is a bounded in-memory cache. Each entry carries its own
// deadline; expired entries are dropped lazily on read.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	byKey    map[string]*list.Element
	recency  *list.List // front is most recently used
	stats    Stats
	now      func() time.Time
}

type lruEntry struct {
	key      string
	value    []byte
	deadline time.Time
}

// NewLRUCache returns an empty cache holding at most capacity entries.
// A non-positive capacity selects 10000.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &LRUCache{
		capacity: capacity,
		byKey:    make(map[string]*list.Element, capacity),
		recency:  list.New(),
		now:      time.Now,
	}
}

// Get returns the stored value, or nil, nil when the key is absent or expired.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errEmptyKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.byKey[key]
	if ok && !c.now().Before(elem.Value.(*lruEntry).deadline) {
		c.unlink(elem)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		return nil, nil
	}

	c.stats.Hits++
	c.recency.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, nil
}

// Set stores value until ttl elapses, evicting the least recently used
// entries once the cache is over capacity.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errEmptyKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := c.now().Add(ttl)
	if elem, ok := c.byKey[key]; ok {
		entry := elem.Value.(*lruEntry)
		entry.value, entry.deadline = value, deadline
		c.recency.MoveToFront(elem)
		return nil
	}

	c.byKey[key] = c.recency.PushFront(&lruEntry{key: key, value: value, deadline: deadline})
	for c.recency.Len() > c.capacity {
		c.unlink(c.recency.Back())
		c.stats.Evictions++
	}
	return nil
}

// Delete drops key if present.
func (c *LRUCache) Delete(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}

	c.mu.Lock()
	if elem, ok := c.byKey[key]; ok {
		c.unlink(elem)
	}
	c.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (c *LRUCache) Ping(context.Context) error {
	return nil
}

// Close empties the cache. The cache stays usable afterwards.
func (c *LRUCache) Close() error {
	c.mu.Lock()
	c.byKey = make(map[string]*list.Element, c.capacity)
	c.recency.Init()
	c.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the counters.
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.recency.Len()
	s.Capacity = c.capacity
	return s
}

func (c *LRUCache) unlink(elem *list.Element) {
	c.recency.Remove(elem)
	delete(c.byKey, elem.Value.(*lruEntry).key)
}
