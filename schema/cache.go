package schema

import "github.com/lcmproject/lcmgo/internal/hash"

// Cache remembers the parse result keyed by the xxHash64 of a .lcm file's
// raw source, so identical source text handed to the same Cache more than
// once is parsed only once. Entries are held in memory only; nothing is kept
// between processes.
type Cache struct {
	entries map[uint64]*File
}

// NewCache creates an empty parse cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]*File)}
}

// Get returns the cached parse result for src, if present.
func (c *Cache) Get(src string) (*File, bool) {
	f, ok := c.entries[hash.ID(src)]
	return f, ok
}

// Put records the parse result for src.
func (c *Cache) Put(src string, f *File) {
	c.entries[hash.ID(src)] = f
}

// ParseCached parses src, reusing a previously cached result for identical
// source text when available.
func (c *Cache) ParseCached(src string) (*File, error) {
	if f, ok := c.Get(src); ok {
		return f, nil
	}
	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.Put(src, f)
	return f, nil
}
