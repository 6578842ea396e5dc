package infra

import (
	"context"
	"sync"

	"stock_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// StaticQuotes is an in-memory price table, used for offline runs and tests.
type StaticQuotes struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

// NewStaticQuotes creates a table from the quotes.static config section
func NewStaticQuotes(table map[string]StaticQuote) *StaticQuotes {
	s := &StaticQuotes{quotes: make(map[string]domain.Quote, len(table))}
	for symbol, q := range table {
		s.Set(symbol, q.Name, q.Price)
	}
	return s
}

// Set adds or replaces the quote for symbol
func (s *StaticQuotes) Set(symbol, name string, price decimal.Decimal) {
	symbol = domain.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = domain.Quote{Symbol: symbol, Name: name, Price: price}
}

// Remove drops symbol from the table
func (s *StaticQuotes) Remove(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, domain.NormalizeSymbol(symbol))
}

// Lookup implements domain.QuoteSource
func (s *StaticQuotes) Lookup(_ context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder, "", "stock symbol cannot be blank")
	}

	s.mu.RLock()
	q, ok := s.quotes[symbol]
	s.mu.RUnlock()

	if !ok || !q.Valid() {
		return nil, domain.NewOrderError(domain.ErrUnknownSymbol, symbol, "stock symbol not valid")
	}
	return &q, nil
}
