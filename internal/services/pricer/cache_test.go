package pricer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solpaper/internal/domain"
)

func testQuote(address string) domain.TokenQuote {
	return domain.TokenQuote{
		Address: address,
		Name:    "Test Token",
		Symbol:  "TEST",
		Price:   decimal.NewFromFloat(0.5),
		Source:  "birdeye",
	}
}

func TestCache_GetWithinTTL(t *testing.T) {
	now := time.Now()
	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Put("addr", testQuote("addr"))

	now = now.Add(59 * time.Second)
	got, ok := cache.Get("addr")
	require.True(t, ok)
	assert.Equal(t, "TEST", got.Symbol)
}

func TestCache_ExpiredEntryReadsAsMiss(t *testing.T) {
	now := time.Now()
	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Put("addr", testQuote("addr"))

	// the boundary is exclusive: an entry exactly TTL old is already stale
	now = now.Add(time.Minute)
	_, ok := cache.Get("addr")
	assert.False(t, ok)

	// lazy expiry: the stale entry is still stored, just unreadable
	cache.mu.RLock()
	_, present := cache.entries["addr"]
	cache.mu.RUnlock()
	assert.True(t, present)
}

func TestCache_PutOverwrites(t *testing.T) {
	cache := NewCache(time.Minute)

	cache.Put("addr", testQuote("addr"))
	updated := testQuote("addr")
	updated.Price = decimal.NewFromInt(2)
	cache.Put("addr", updated)

	got, ok := cache.Get("addr")
	require.True(t, ok)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(2)))
}

func TestCache_MissUnknownAddress(t *testing.T) {
	cache := NewCache(time.Minute)
	_, ok := cache.Get("unknown")
	assert.False(t, ok)
}

func TestCache_GetReturnsCopy(t *testing.T) {
	cache := NewCache(time.Minute)
	cache.Put("addr", testQuote("addr"))

	first, ok := cache.Get("addr")
	require.True(t, ok)
	first.Symbol = "MUTATED"

	second, ok := cache.Get("addr")
	require.True(t, ok)
	assert.Equal(t, "TEST", second.Symbol)
}
