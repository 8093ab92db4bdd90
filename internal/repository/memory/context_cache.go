package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"agent-learning-be/internal/dto"
)

type cacheEntry struct {
	bundle       *dto.ContextBundle
	timestamp    time.Time
	lastAccessed time.Time
}

// ContextCache is a bounded LRU+TTL cache for assembled context bundles.
// All state is guarded by a single mutex so concurrent get/set cannot
// corrupt the lastAccessed ordering or the hit/miss counters.
type ContextCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time
}

func NewContextCache(maxSize int, ttl time.Duration) *ContextCache {
	return &ContextCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key builds the cache key for a task: role, work item id and the first 8
// hex chars of the task description's sha256.
func Key(agentRole, workItemId, taskDescription string) string {
	sum := sha256.Sum256([]byte(taskDescription))
	return fmt.Sprintf("%s:%s:%s", agentRole, workItemId, hex.EncodeToString(sum[:])[:8])
}

// Get returns the cached bundle when present and fresh. A stale entry is
// evicted and reported as a miss.
func (c *ContextCache) Get(key string) (*dto.ContextBundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		c.misses++
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	entry.lastAccessed = c.now()
	c.hits++
	return entry.bundle, true
}

// Set inserts or replaces a bundle. Inserting a new key past capacity
// evicts the least-recently-accessed entry first; replacing never evicts.
func (c *ContextCache) Set(key string, bundle *dto.ContextBundle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.entries[key] = &cacheEntry{
		bundle:       bundle,
		timestamp:    now,
		lastAccessed: now,
	}
}

// evictOldest removes the entry with the smallest lastAccessed. Caller
// must hold the lock.
func (c *ContextCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccessed.Before(oldest) {
			oldestKey = key
			oldest = entry.lastAccessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Warmup bulk-loads bundles through the normal Set path so capacity
// eviction still applies.
func (c *ContextCache) Warmup(bundles map[string]*dto.ContextBundle) {
	for key, bundle := range bundles {
		c.Set(key, bundle)
	}
}

// Cleanup removes every TTL-expired entry without touching the
// lastAccessed ordering of the survivors.
func (c *ContextCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *ContextCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *ContextCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ContextCache) Stats() dto.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := dto.CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
