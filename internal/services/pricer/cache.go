package pricer

import (
	"sync"
	"time"

	"solpaper/internal/domain"
)

// DefaultCacheTTL bounds how long a resolved quote keeps answering lookups.
const DefaultCacheTTL = time.Minute

type cacheEntry struct {
	quote      domain.TokenQuote
	resolvedAt time.Time
}

// Cache memoizes resolved quotes per normalized address for a fixed TTL.
// Expiry is lazy: an expired entry simply reads as a miss and is overwritten
// by the next successful resolution, no sweeper runs.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached quote for the normalized address while the entry is
// younger than the TTL.
func (c *Cache) Get(address string) (*domain.TokenQuote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[address]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.resolvedAt) >= c.ttl {
		return nil, false
	}
	quote := entry.quote
	return &quote, true
}

// Put stores the quote, overwriting any prior entry for the address.
func (c *Cache) Put(address string, quote domain.TokenQuote) {
	c.mu.Lock()
	c.entries[address] = cacheEntry{quote: quote, resolvedAt: c.now()}
	c.mu.Unlock()
}
