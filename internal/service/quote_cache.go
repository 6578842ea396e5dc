package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"stock_ledger/internal/domain"
)

type cachedQuote struct {
	quote     domain.Quote
	fetchedAt time.Time
}

// QuoteCache is a QuoteSource decorator that remembers successful lookups for ttl.
// Failures are never cached.
type QuoteCache struct {
	mu     sync.RWMutex
	source domain.QuoteSource
	ttl    time.Duration
	quotes map[string]cachedQuote
	now    func() time.Time
}

// NewQuoteCache wraps source with a cache of the given lifetime
func NewQuoteCache(source domain.QuoteSource, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		source: source,
		ttl:    ttl,
		quotes: make(map[string]cachedQuote),
		now:    time.Now,
	}
}

// Lookup returns a cached quote if fresh, otherwise asks the wrapped source
func (c *QuoteCache) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)

	c.mu.RLock()
	entry, ok := c.quotes[symbol]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		q := entry.quote
		return &q, nil
	}

	q, err := c.source.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.quotes[symbol] = cachedQuote{quote: *q, fetchedAt: c.now()}
	c.mu.Unlock()

	return q, nil
}

// Invalidate drops symbol from the cache
func (c *QuoteCache) Invalidate(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.quotes, domain.NormalizeSymbol(symbol))
}

// Cached returns every cached quote sorted by symbol, fresh or not
func (c *QuoteCache) Cached() []domain.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.Quote, 0, len(c.quotes))
	for _, entry := range c.quotes {
		result = append(result, entry.quote)
	}

	// Sort by symbol for consistent ordering
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result
}
