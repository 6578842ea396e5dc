package service

import (
	"context"
	"log/slog"
	"sort"

	"stock_ledger/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultLookupConcurrency = 5

// Holding is one line of the portfolio view. Price and MarketValue are
// invalid when the quote could not be fetched.
type Holding struct {
	Symbol      string              `json:"symbol"`
	Name        string              `json:"name"`
	Shares      int64               `json:"shares"`
	Price       decimal.NullDecimal `json:"price"`
	MarketValue decimal.NullDecimal `json:"market_value"`
	Available   bool                `json:"available"`
}

// NetWorth is cash plus the market value of all priced holdings.
// Complete is false when at least one holding could not be priced.
type NetWorth struct {
	Cash          decimal.Decimal `json:"cash"`
	HoldingsValue decimal.Decimal `json:"holdings_value"`
	Total         decimal.Decimal `json:"total"`
	Complete      bool            `json:"complete"`
}

// Portfolio combines holdings and net worth for a single account view
type Portfolio struct {
	Account  *domain.Account `json:"account"`
	Holdings []Holding       `json:"holdings"`
	NetWorth NetWorth        `json:"net_worth"`
}

// PortfolioService provides read-only views over the ledger. It never mutates the store.
type PortfolioService struct {
	store       domain.LedgerReader
	quotes      domain.QuoteSource
	concurrency int
	logger      *slog.Logger
}

// NewPortfolioService creates a new PortfolioService instance.
// concurrency bounds parallel quote lookups; values below 1 use a default.
func NewPortfolioService(store domain.LedgerReader, quotes domain.QuoteSource, concurrency int) *PortfolioService {
	if concurrency < 1 {
		concurrency = defaultLookupConcurrency
	}
	return &PortfolioService{
		store:       store,
		quotes:      quotes,
		concurrency: concurrency,
		logger:      slog.Default().With("module", "portfolio"),
	}
}

// GetHoldings returns one priced entry per held symbol, sorted by symbol.
// A failed lookup degrades only its own entry.
func (s *PortfolioService) GetHoldings(ctx context.Context, accountID uint) ([]Holding, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.holdings(ctx, accountID)
}

func (s *PortfolioService) holdings(ctx context.Context, accountID uint) ([]Holding, error) {
	positions, err := s.store.ListPositions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// Aggregate by symbol
	shares := make(map[string]int64, len(positions))
	for _, p := range positions {
		if p.Shares > 0 {
			shares[p.Symbol] += p.Shares
		}
	}

	holdings := make([]Holding, 0, len(shares))
	for symbol, n := range shares {
		holdings = append(holdings, Holding{Symbol: symbol, Shares: n})
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range holdings {
		h := &holdings[i]
		g.Go(func() error {
			s.price(gctx, h)
			return nil
		})
	}
	g.Wait()

	return holdings, nil
}

// price fills in h from a fresh quote, or marks it unavailable
func (s *PortfolioService) price(ctx context.Context, h *Holding) {
	q, err := s.quotes.Lookup(ctx, h.Symbol)
	if err != nil || !q.Valid() {
		s.logger.Warn("Holding priced as unavailable",
			slog.String("symbol", h.Symbol),
			slog.String("kind", domain.KindOf(err)),
			slog.Any("error", err))
		return
	}

	h.Name = q.Name
	h.Price = decimal.NewNullDecimal(q.Price)
	h.MarketValue = decimal.NewNullDecimal(q.Cost(h.Shares))
	h.Available = true
}

// GetNetWorth returns cash + Σ market value over all holdings
func (s *PortfolioService) GetNetWorth(ctx context.Context, accountID uint) (NetWorth, error) {
	p, err := s.GetPortfolio(ctx, accountID)
	if err != nil {
		return NetWorth{}, err
	}
	return p.NetWorth, nil
}

// GetPortfolio returns the account, its holdings and net worth in one call
func (s *PortfolioService) GetPortfolio(ctx context.Context, accountID uint) (*Portfolio, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.holdings(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Portfolio{
		Account:  account,
		Holdings: holdings,
		NetWorth: netWorth(account.Cash, holdings),
	}, nil
}

func netWorth(cash decimal.Decimal, holdings []Holding) NetWorth {
	nw := NetWorth{Cash: cash, HoldingsValue: decimal.Zero, Complete: true}
	for _, h := range holdings {
		if !h.Available {
			nw.Complete = false
			continue
		}
		nw.HoldingsValue = nw.HoldingsValue.Add(h.MarketValue.Decimal)
	}
	nw.Total = cash.Add(nw.HoldingsValue)
	return nw
}

// GetHistory returns the account's transactions oldest first, unmodified
func (s *PortfolioService) GetHistory(ctx context.Context, accountID uint) ([]domain.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, accountID)
}

// Quote looks up the current price of symbol
func (s *PortfolioService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder, "", "stock symbol cannot be blank")
	}
	return s.quotes.Lookup(ctx, symbol)
}
