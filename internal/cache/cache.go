// Package cache implements the content-addressed result cache: TTL expiry,
// batched LRU eviction under capacity pressure, and throttled recency
// bookkeeping. All operations are advisory from the caller's point of view;
// nothing here can fail a request.
package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/crosscheck-ai/crosscheck/internal/clock"
)

const (
	// DefaultCapacity bounds the number of live entries.
	DefaultCapacity = 1000

	// DefaultTTL applies when Set is called with ttl <= 0.
	DefaultTTL = time.Hour

	// DefaultTouchInterval throttles hit-count and recency updates per key.
	DefaultTouchInterval = 5 * time.Second
)

// Entry is one cached record. Value is an opaque serialized payload.
type Entry struct {
	Key          string    `json:"key"`
	Tag          string    `json:"tag,omitempty"`
	Value        []byte    `json:"value"`
	HitCount     int64     `json:"hitCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Stats reports cache performance counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Expired   int64 `json:"expired"`
}

// Options configures a Cache. Zero values fall back to the defaults above.
type Options struct {
	Capacity      int
	DefaultTTL    time.Duration
	TouchInterval time.Duration
	Clock         clock.Clock
	Logger        *slog.Logger
}

// Cache is a concurrency-safe in-memory store keyed by content hash. A map
// indexes entries while a doubly linked list maintains recency order, front
// being most recently touched. Every mutation runs entirely under one lock;
// there is no awaited step between a lookup and its dependent write.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element // key -> element whose Value is *Entry
	order   *list.List

	capacity      int
	defaultTTL    time.Duration
	touchInterval time.Duration
	clock         clock.Clock
	logger        *slog.Logger

	hits      int64
	misses    int64
	evictions int64
	expired   int64
}

// New returns a Cache ready for use.
func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.TouchInterval <= 0 {
		opts.TouchInterval = DefaultTouchInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Cache{
		entries:       make(map[string]*list.Element),
		order:         list.New(),
		capacity:      opts.Capacity,
		defaultTTL:    opts.DefaultTTL,
		touchInterval: opts.TouchInterval,
		clock:         opts.Clock,
		logger:        opts.Logger,
	}
}

// Get returns the value stored under key. Expired entries are removed and
// reported as misses. On a hit, recency and hit count are refreshed at most
// once per touch interval, bounding write amplification under hot-key bursts.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := el.Value.(*Entry)
	now := c.clock.Now()
	if !now.Before(e.ExpiresAt) {
		c.removeLocked(el)
		c.expired++
		c.misses++
		return nil, false
	}

	c.hits++
	if now.Sub(e.LastAccessed) >= c.touchInterval {
		e.LastAccessed = now
		e.HitCount++
		c.order.MoveToFront(el)
	}

	val := make([]byte, len(e.Value))
	copy(val, e.Value)
	return val, true
}

// Set stores value under key, replacing any existing entry. A ttl <= 0 uses
// the configured default. Inserting into a full cache batch-evicts the
// least-recently-accessed ~10% of entries first.
func (c *Cache) Set(key, tag string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*Entry)
		e.Tag = tag
		e.Value = cloneBytes(value)
		e.CreatedAt = now
		e.LastAccessed = now
		e.ExpiresAt = now.Add(ttl)
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictBatchLocked()
	}

	e := &Entry{
		Key:          key,
		Tag:          tag,
		Value:        cloneBytes(value),
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(ttl),
	}
	c.entries[key] = c.order.PushFront(e)
}

// GetOrSet returns the cached value for key, computing and storing it on a
// miss. The compute function runs outside the lock; two concurrent misses on
// the same key may both compute, and the later Set wins. The bool reports
// whether the value came from cache. A compute error is returned as-is and
// nothing is stored.
func (c *Cache) GetOrSet(key, tag string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, bool, error) {
	if val, ok := c.Get(key); ok {
		return val, true, nil
	}

	val, err := compute()
	if err != nil {
		return nil, false, err
	}

	c.Set(key, tag, val, ttl)
	return val, false, nil
}

// Delete removes the entry under key, reporting whether it existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	return true
}

// Clear removes every entry. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// ClearByTag removes all entries carrying tag and returns how many.
func (c *Cache) ClearByTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*Entry).Tag == tag {
			c.removeLocked(el)
			removed++
		}
		el = next
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   c.order.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
}

// Peek returns a copy of the entry under key without refreshing recency or
// counting a hit. Expired entries read as absent.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	e := el.Value.(*Entry)
	if !c.clock.Now().Before(e.ExpiresAt) {
		return Entry{}, false
	}

	cp := *e
	cp.Value = cloneBytes(e.Value)
	return cp, true
}

// Entries returns a copy of every live entry, most recently touched first.
// Used for persistence snapshots.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		cp := *e
		cp.Value = cloneBytes(e.Value)
		out = append(out, cp)
	}
	return out
}

// Load inserts an entry as-is, skipping ones already expired. Used to warm
// the cache from a persistent snapshot at startup.
func (c *Cache) Load(e Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.clock.Now().Before(e.ExpiresAt) {
		return false
	}
	if _, exists := c.entries[e.Key]; exists {
		return false
	}
	if c.order.Len() >= c.capacity {
		return false
	}

	cp := e
	cp.Value = cloneBytes(e.Value)
	c.entries[cp.Key] = c.order.PushBack(&cp)
	return true
}

// evictBatchLocked removes the least-recently-accessed ~10% of entries
// (at least one). Amortizes eviction cost instead of evicting one entry per
// insert at capacity.
func (c *Cache) evictBatchLocked() {
	batch := (c.capacity + 9) / 10
	if batch < 1 {
		batch = 1
	}

	for i := 0; i < batch; i++ {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
		c.evictions++
	}

	c.logger.Debug("cache eviction batch", "evicted", batch, "capacity", c.capacity)
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*Entry)
	delete(c.entries, e.Key)
	c.order.Remove(el)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
