package prediction

import (
	"sync"
	"time"

	"github.com/ternarybob/moutai/internal/models"
)

// DefaultFreshnessWindow is how long a fetched result is served without calling upstream.
const DefaultFreshnessWindow = 5 * time.Minute

// Cache is a single-slot store for the last successful fetch.
// Put replaces the slot wholesale; there is no eviction.
type Cache struct {
	mu     sync.RWMutex
	entry  *models.CacheEntry
	window time.Duration
}

// NewCache creates an empty cache. A non-positive window uses DefaultFreshnessWindow.
func NewCache(window time.Duration) *Cache {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &Cache{window: window}
}

// Get returns a copy of the cached entry, if any.
func (c *Cache) Get() (*models.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return nil, false
	}
	return copyEntry(c.entry), true
}

// Put overwrites the slot.
func (c *Cache) Put(entry *models.CacheEntry) {
	if entry == nil {
		return
	}
	stored := copyEntry(entry)

	c.mu.Lock()
	c.entry = stored
	c.mu.Unlock()
}

// IsFresh reports whether entry is younger than the freshness window at now.
func (c *Cache) IsFresh(entry *models.CacheEntry, now time.Time) bool {
	if entry == nil {
		return false
	}
	age := now.Sub(entry.FetchedAt())
	return age < c.window
}

// Window returns the freshness window.
func (c *Cache) Window() time.Duration {
	return c.window
}

func copyEntry(entry *models.CacheEntry) *models.CacheEntry {
	return &models.CacheEntry{
		Result:               *entry.Result.Clone(),
		FetchedAtEpochMillis: entry.FetchedAtEpochMillis,
	}
}
