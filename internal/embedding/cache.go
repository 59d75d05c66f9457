package embedding

import "sync"

// Cache maps a document ID to its computed vector, keyed additionally by the
// document's content fingerprint: an entry is only served when the
// fingerprint still matches, so a reloaded document with new content misses
// and gets re-embedded. At most one entry per document ID.
//
// Safe for concurrent use. Concurrent fills for the same document may race;
// last-writer-wins is fine since all writers compute the same deterministic
// vector for the same content.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	fingerprint string
	vector      []float32
}

// NewCache creates an empty vector cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached vector for documentID if present and computed from
// content matching fingerprint.
func (c *Cache) Get(documentID, fingerprint string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[documentID]
	if !ok || e.fingerprint != fingerprint {
		return nil, false
	}
	return e.vector, true
}

// Put stores the vector for documentID, replacing any entry computed from
// older content.
func (c *Cache) Put(documentID, fingerprint string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[documentID] = cacheEntry{fingerprint: fingerprint, vector: vector}
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry. Used when the cache must be invalidated wholesale.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
