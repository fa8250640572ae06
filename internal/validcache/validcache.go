// Package validcache caches validation results keyed by a digest of the
// inputs, so repeated validation of an unchanged acquisition against an
// unchanged schema never reaches the analysis engine twice.
package validcache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 256

// Cache is a bounded LRU keyed by input digest. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type entry struct {
	key    string
	result any
}

// New returns a cache holding at most capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Key computes the digest for one validation call. The three inputs are
// serialized canonically (encoding/json sorts map keys), so any change to the
// acquisition, the schema content, or the index yields a different key.
func Key(acquisition any, schemaContent string, acquisitionIndex int) (string, error) {
	serialized, err := json.Marshal(struct {
		Acquisition any    `json:"acquisition"`
		Schema      string `json:"schema"`
		Index       int    `json:"index"`
	}{acquisition, schemaContent, acquisitionIndex})
	if err != nil {
		return "", fmt.Errorf("serialize cache key: %w", err)
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the cached result for key, if present.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	element, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*entry).result, true
}

// Put stores a result, evicting the least recently used entry when full.
func (c *Cache) Put(key string, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if element, ok := c.entries[key]; ok {
		element.Value.(*entry).result = result
		c.order.MoveToFront(element)
		return
	}
	c.entries[key] = c.order.PushFront(&entry{key: key, result: result})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}
