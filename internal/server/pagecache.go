package server

import (
	"sync"
	"time"

	"github.com/danielledeleo/seocms/render"
)

// PageCache keeps rendered pages for a short time. Every write to pages,
// rules or statuses calls Invalidate, which bumps the generation; a render
// that started under an older generation is not stored.
type PageCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	generation uint64
	entries    map[string]pageCacheEntry
	now        func() time.Time
}

type pageCacheEntry struct {
	rendered   *render.RenderedPage
	generation uint64
	expires    time.Time
}

// NewPageCache creates a cache whose entries live for ttl. A ttl of zero
// or less disables caching.
func NewPageCache(ttl time.Duration) *PageCache {
	return &PageCache{
		ttl:     ttl,
		entries: make(map[string]pageCacheEntry),
		now:     time.Now,
	}
}

// Generation returns the current generation. Read it before rendering and
// pass it to Put.
func (c *PageCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Get returns the cached rendering of pageKey when it is fresh.
func (c *PageCache) Get(pageKey string) (*render.RenderedPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[pageKey]
	if !ok {
		return nil, false
	}
	if e.generation != c.generation || !c.now().Before(e.expires) {
		delete(c.entries, pageKey)
		return nil, false
	}
	return e.rendered, true
}

// Put stores a rendering made under generation. It is dropped if the cache
// was invalidated since.
func (c *PageCache) Put(pageKey string, generation uint64, rendered *render.RenderedPage) {
	if c.ttl <= 0 || rendered == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	c.entries[pageKey] = pageCacheEntry{
		rendered:   rendered,
		generation: generation,
		expires:    c.now().Add(c.ttl),
	}
}

// Invalidate drops every entry.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.entries = make(map[string]pageCacheEntry)
}

// Len returns the number of stored entries, fresh or not.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
