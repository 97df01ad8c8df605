package apiclient

import "sync"

// responseCache holds the last good body of every GET path. Entries never
// expire on their own; only clear drops them. The generation lets a
// revalidation that started before a clear discard its now-stale result.
type responseCache struct {
	mu         sync.RWMutex
	entries    map[string][]byte
	generation uint64
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string][]byte)}
}

func (c *responseCache) get(key string) ([]byte, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[key]
	return b, c.generation, ok
}

func (c *responseCache) gen() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// set stores body unless the cache was cleared since gen was read.
func (c *responseCache) set(key string, body []byte, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.entries[key] = body
	return true
}

func (c *responseCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.generation++
	c.mu.Unlock()
}

func (c *responseCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
