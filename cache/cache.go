// Package cache keeps recent judge search results in memory.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/use-agent/judgetrack/models"
)

// entry holds a cached result with its creation timestamp.
type entry struct {
	result    *models.JudgeResult
	createdAt time.Time
}

// Cache is a simple in-memory cache for judge search results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration

	stop chan struct{}
	once sync.Once
}

// New creates a Cache holding at most maxEntries results. A background
// goroutine evicts entries older than ttl every ttl/12 (at least once a
// minute). Call Close to stop it.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		stop:       make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Key normalises a judge name into a cache key.
func Key(judgeName string) string {
	return strings.Join(strings.Fields(strings.ToLower(judgeName)), " ")
}

// Get retrieves a cached result if it exists and is younger than maxAge.
// If maxAge <= 0, no cache lookup is performed.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.JudgeResult, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > maxAge {
		return nil, false
	}
	return e.result, true
}

// Set stores a result. Failed or empty searches are not cached. If the
// cache is at capacity, a random entry is evicted to make room.
func (c *Cache) Set(key string, res *models.JudgeResult) {
	if res == nil || res.Err != nil || len(res.Records) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random, so this evicts a random entry.
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{result: res, createdAt: time.Now()}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background sweep.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupLoop() {
	interval := max(c.ttl/12, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep(time.Now())
		case <-c.stop:
			return
		}
	}
}

// sweep evicts entries older than the TTL as of now.
func (c *Cache) sweep(now time.Time) {
	cutoff := now.Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
