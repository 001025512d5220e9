package bls

import (
	"context"
	"sync"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

// CachedQuerier wraps a SeriesQuerier with an in-memory LRU cache keyed by
// batch contents, so a retried or repeated run does not spend API quota on
// batches it already fetched.
type CachedQuerier struct {
	inner   domain.SeriesQuerier
	cache   *lruCache[[]domain.QueryResult]
	metrics *observability.Metrics
}

// NewCachedQuerier creates a cache decorator around a querier.
func NewCachedQuerier(inner domain.SeriesQuerier, maxEntries int, metrics *observability.Metrics) *CachedQuerier {
	return &CachedQuerier{
		inner:   inner,
		cache:   newLRUCache[[]domain.QueryResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedQuerier) QueryBatch(ctx context.Context, batch domain.Batch) ([]domain.QueryResult, error) {
	key := batch.Key()
	if results, ok := c.cache.get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
		return results, nil
	}
	c.metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	results, err := c.inner.QueryBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	// Empty responses are not cached so a transient gap can be re-fetched.
	if len(results) > 0 {
		c.cache.put(key, results)
	}
	return results, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
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

func (c *lruCache[V]) unlink(e *entry[V]) {
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

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
