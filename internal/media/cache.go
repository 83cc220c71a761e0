package media

import (
	"fmt"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/metrics"
)

// DefaultVolatileSize bounds the in-memory tier when no size is configured.
const DefaultVolatileSize = 100

// Store is the persistent tier. Implementations run each call in its own transaction.
type Store interface {
	Store(d day.Index, data []byte, kind Kind) error
	Get(d day.Index) (Blob, bool, error)
}

// Decoder turns a stored blob into the handle kept in memory.
type Decoder[H any] func(Blob) (H, error)

// Identity keeps the blob itself as the handle.
func Identity(b Blob) (Blob, error) { return b, nil }

// Cache fronts a Store with at most N decoded handles, evicting the least
// recently used. The in-memory tier is not durable.
type Cache[H any] struct {
	mu     sync.Mutex
	lru    *lru.Cache
	store  Store
	decode Decoder[H]
}

// NewCache builds a two-tier cache. A nil store makes the cache volatile only.
func NewCache[H any](store Store, size int, decode Decoder[H]) *Cache[H] {
	if size <= 0 {
		size = DefaultVolatileSize
	}
	return &Cache[H]{
		lru:    lru.New(size),
		store:  store,
		decode: decode,
	}
}

// Peek returns the handle for d from the in-memory tier only.
func (c *Cache[H]) Peek(d day.Index) (H, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(d)
	metrics.ObserveMediaLookup(metrics.TierVolatile, ok)
	if !ok {
		var zero H
		return zero, false
	}
	return v.(H), true
}

// Get returns the handle for d, filling the in-memory tier from the store on a miss.
func (c *Cache[H]) Get(d day.Index) (H, bool, error) {
	if h, ok := c.Peek(d); ok {
		return h, true, nil
	}
	var zero H
	if c.store == nil {
		return zero, false, nil
	}

	blob, ok, err := c.store.Get(d)
	metrics.ObserveMediaLookup(metrics.TierPersistent, ok)
	if err != nil || !ok {
		return zero, false, err
	}
	h, err := c.admit(d, blob)
	if err != nil {
		return zero, false, err
	}
	return h, true, nil
}

// Put writes a freshly fetched blob to the store and keeps its handle in
// memory. A store failure is returned but the handle is still cached.
func (c *Cache[H]) Put(d day.Index, blob Blob) (H, error) {
	h, err := c.admit(d, blob)
	if err != nil {
		return h, err
	}
	if c.store != nil {
		if err := c.store.Store(d, blob.Data, blob.Kind); err != nil {
			return h, fmt.Errorf("persist media for %s: %w", d, err)
		}
	}
	return h, nil
}

func (c *Cache[H]) admit(d day.Index, blob Blob) (H, error) {
	h, err := c.decode(blob)
	if err != nil {
		var zero H
		return zero, fmt.Errorf("decode media for %s: %w", d, err)
	}
	c.mu.Lock()
	c.lru.Add(d, h)
	c.mu.Unlock()
	return h, nil
}

// Remove drops d from the in-memory tier.
func (c *Cache[H]) Remove(d day.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(d)
}

// Len returns the number of handles held in memory.
func (c *Cache[H]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
