package shipping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/service"
)

const defaultCacheTTL = 5 * time.Minute

// QuoteCache caches carrier quotes per (product, zip) pair. Entries older
// than the TTL are refetched on read; FreshQuotes always bypasses the cache
// and replaces the stored entry.
type QuoteCache struct {
	quoter Quoter
	ttl    time.Duration

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

var _ service.ShippingQuoter = (*QuoteCache)(nil)

type cacheKey struct {
	productID      int64
	destinationZip string
}

type cacheEntry struct {
	quotes    []domain.ShippingQuote
	fetchedAt time.Time
}

func NewQuoteCache(quoter Quoter, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &QuoteCache{
		quoter:  quoter,
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *QuoteCache) Quotes(ctx context.Context, productID int64, destinationZip string) ([]domain.ShippingQuote, error) {
	key := cacheKey{productID: productID, destinationZip: destinationZip}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && time.Since(entry.fetchedAt) <= c.ttl {
		return cloneQuotes(entry.quotes), nil
	}
	return c.FreshQuotes(ctx, productID, destinationZip)
}

func (c *QuoteCache) FreshQuotes(ctx context.Context, productID int64, destinationZip string) ([]domain.ShippingQuote, error) {
	quotes, err := c.quoter.Quote(ctx, productID, destinationZip)
	if err != nil {
		return nil, fmt.Errorf("shipping quotes for product %d: %w", productID, err)
	}

	key := cacheKey{productID: productID, destinationZip: destinationZip}
	c.mu.Lock()
	c.entries[key] = cacheEntry{quotes: quotes, fetchedAt: time.Now()}
	c.mu.Unlock()

	return cloneQuotes(quotes), nil
}

// cloneQuotes keeps callers from mutating the cached slice.
func cloneQuotes(quotes []domain.ShippingQuote) []domain.ShippingQuote {
	out := make([]domain.ShippingQuote, len(quotes))
	copy(out, quotes)
	return out
}
