package preview

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds raw content of referenced documents keyed by canonical path.
// It is bounded: the least recently used entry is evicted once full.
type Cache struct {
	entries *lru.Cache[string, string]
}

// NewCache returns a cache holding at most size documents.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = 1
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		// Only returned for a non-positive size, excluded above
		panic(err)
	}
	return &Cache{entries: entries}
}

// Get returns the cached content for path.
func (c *Cache) Get(path string) (string, bool) {
	return c.entries.Get(path)
}

// Put stores content for path.
func (c *Cache) Put(path, content string) {
	c.entries.Add(path, content)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}
