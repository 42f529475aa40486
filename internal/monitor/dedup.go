package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/betbot/copybot/internal/metrics"
)

// DedupCache remembers event keys for a bounded retention window so a
// trade redelivered by the feed is processed once.
type DedupCache struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewDedupCache creates a cache with the given retention window.
func NewDedupCache(retention time.Duration) *DedupCache {
	return &DedupCache{
		entries:   make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// Seen atomically checks for the key and records it. It returns true when
// the key was already present within the retention window.
func (c *DedupCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.entries[key]; ok && now.Sub(at) < c.retention {
		return true
	}
	c.entries[key] = now
	metrics.DedupCacheSize.Set(int64(len(c.entries)))
	return false
}

// Sweep drops entries older than the retention window.
func (c *DedupCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, at := range c.entries {
		if now.Sub(at) >= c.retention {
			delete(c.entries, key)
		}
	}
	metrics.DedupCacheSize.Set(int64(len(c.entries)))
}

// Size returns the number of live entries.
func (c *DedupCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (c *DedupCache) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
