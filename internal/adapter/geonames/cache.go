package geonames

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/observability"
)

// CachedService wraps a TimezoneService with an in-memory LRU cache.
// Tower sites repeat across years, so most lookups after the first file
// for a site are hits.
type CachedService struct {
	inner   domain.TimezoneService
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedService creates a cache decorator around a timezone service.
func NewCachedService(inner domain.TimezoneService, maxEntries int, metrics *observability.Metrics) *CachedService {
	return &CachedService{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedService) LookupUTCOffset(ctx context.Context, lat, lon float64) (float64, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if offset, ok := c.cache.get(key); ok {
		c.metrics.TimezoneCache.WithLabelValues("hit").Inc()
		return offset, nil
	}
	c.metrics.TimezoneCache.WithLabelValues("miss").Inc()

	offset, err := c.inner.LookupUTCOffset(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	c.cache.put(key, offset)
	return offset, nil
}

// lruCache is a simple thread-safe LRU cache for UTC offsets.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
