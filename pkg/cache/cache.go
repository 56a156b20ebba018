// Package cache provides a thread-safe LRU cache for compiled formula
// artifacts.
//
// Compilation is pure per (tree-shape, tolerance) pair, so artifacts are
// cached under a key combining the formula fingerprint and the tolerance
// key. Re-evaluating the same formula never re-runs inference, folding or
// codegen.
//
// # Example
//
//	c := cache.New(1024)
//	artifact, err := c.GetOrBuild(key, build)
package cache

import (
	"container/list"
	"sync"

	"github.com/sandrolain/goformula/pkg/compiler"
)

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key      string
	artifact *compiler.Artifact
}

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled
// artifacts. Once the capacity is reached, the least recently accessed
// entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, a default of 256 is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get retrieves a compiled artifact from the cache.
// Returns (artifact, true) if found and moves the entry to front (MRU).
func (c *Cache) Get(key string) (*compiler.Artifact, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	// If the element is already at the front, skip the write lock entirely.
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !alreadyFront {
		// Promote to front under write lock; re-check in case of concurrent
		// eviction.
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()

		if !ok {
			return nil, false
		}
	}
	return el.Value.(*entry).artifact, true
}

// Set inserts or replaces an artifact in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(key string, artifact *compiler.Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).artifact = artifact
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry{key: key, artifact: artifact})
	c.items[key] = el
}

// GetOrBuild retrieves the artifact for key from cache, or calls build() to
// create it, caches the result, and returns it. Errors are not cached: a
// failed build leaves no entry behind.
func (c *Cache) GetOrBuild(key string, build func() (*compiler.Artifact, error)) (*compiler.Artifact, error) {
	if artifact, ok := c.Get(key); ok {
		return artifact, nil
	}
	artifact, err := build()
	if err != nil {
		return nil, err
	}
	c.Set(key, artifact)
	return artifact, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, el.Value.(*entry).key)
	}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
