package texture

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
)

// Cache is a concurrency-safe texture cache. It satisfies render.ImageSource.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Load resolves, decodes and caches a texture by name. Failures are cached
// too, so a broken file is decoded once.
func (c *Cache) Load(texName string) (*image.NRGBA, error) {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil, &DecodeError{Path: texName, Err: fmt.Errorf("not found in asset dirs: %w", os.ErrNotExist)}
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := Load(path)
	if err == nil {
		slog.Debug("texture decoded", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}
