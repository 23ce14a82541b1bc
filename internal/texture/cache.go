package texture

import (
	"image"
	"sync"
)

// Resolver resolves a texture name to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[Location]*cacheEntry
	index *Index
	src   Source
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a texture cache backed by index; archive entries are
// read from src.
func NewCache(index *Index, src Source) *Cache {
	return &Cache{
		items: make(map[Location]*cacheEntry),
		index: index,
		src:   src,
	}
}

// Resolve loads and caches a texture by name. Returns nil if the texture is
// unknown or fails to decode.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	img, _ := c.Load(texName)
	return img
}

// Load is Resolve with the decode error. Failures are cached too.
func (c *Cache) Load(texName string) (*image.NRGBA, error) {
	loc, ok := c.index.Lookup(texName)
	if !ok {
		return nil, nil
	}

	c.mu.RLock()
	if entry, exists := c.items[loc]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := Load(c.src, loc)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[loc]; exists {
		return entry.img, entry.err
	}
	c.items[loc] = &cacheEntry{img: img, err: err}
	return img, err
}

// Len returns the number of cached lookups.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
