package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTTL bounds the freshness of general-purpose remote lookups.
	DefaultTTL = 24 * time.Hour
	// CatalogTTL is the shorter freshness window for catalog lookups.
	CatalogTTL = 12 * time.Hour

	janitorInterval = time.Hour
)

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a time-boxed memoization of idempotent remote lookups. A fresh
// entry is served without recomputing; stale or missing entries are computed
// and stored. Concurrent computation of the same key is allowed and resolves
// last-writer-wins.
type Cache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]entry
}

// New creates a cache whose entries stay fresh for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Key builds a cache key from an operation name and its stringified scalar
// arguments.
func Key(op string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return strings.Join(parts, ":")
}

// GetOrCompute returns the cached value of key if it is still fresh, and
// otherwise invokes produce and stores its result. Errors and nil results are
// never cached.
func (c *Cache) GetOrCompute(key string, produce func() (any, error)) (any, error) {
	c.mu.Lock()
	if ent, ok := c.entries[key]; ok && time.Since(ent.storedAt) < c.ttl {
		c.mu.Unlock()
		return ent.value, nil
	}
	c.mu.Unlock()

	value, err := produce()
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: time.Now()}
	c.mu.Unlock()
	return value, nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartJanitor launches a background sweep removing entries older than the
// TTL. The goroutine stops when ctx is cancelled.
func (c *Cache) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, ent := range c.entries {
		if time.Since(ent.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}
