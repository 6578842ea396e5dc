package engine

import (
	"context"
	"log/slog"
	"time"

	"stock_ledger/internal/domain"
	"stock_ledger/internal/infra"
)

// Engine validates orders, prices them and applies them to the ledger.
// It holds no mutable state of its own; all serialization happens in the store.
type Engine struct {
	store   domain.LedgerStore
	quotes  domain.QuoteSource
	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewEngine creates an engine over store priced by quotes.
func NewEngine(store domain.LedgerStore, quotes domain.QuoteSource, metrics *infra.Metrics) *Engine {
	return &Engine{
		store:   store,
		quotes:  quotes,
		metrics: metrics,
		logger:  slog.Default().With("module", "engine"),
	}
}

// Buy submits a BUY of shares of symbol.
func (e *Engine) Buy(ctx context.Context, accountID uint, symbol string, shares int64) (*domain.Transaction, error) {
	return e.Submit(ctx, accountID, domain.Order{Symbol: symbol, Shares: shares, Side: domain.SideBuy})
}

// Sell submits a SELL of shares of symbol.
func (e *Engine) Sell(ctx context.Context, accountID uint, symbol string, shares int64) (*domain.Transaction, error) {
	return e.Submit(ctx, accountID, domain.Order{Symbol: symbol, Shares: shares, Side: domain.SideSell})
}

// SubmitRaw parses unvalidated user input and submits it.
// Malformed input is rejected with ErrInvalidOrder before any lookup.
func (e *Engine) SubmitRaw(ctx context.Context, accountID uint, symbol, shares, side string) (*domain.Transaction, error) {
	order, err := domain.ParseOrder(symbol, shares, side)
	if err != nil {
		e.metrics.RecordOrder(0, err)
		e.logRejected(accountID, domain.Order{Symbol: domain.NormalizeSymbol(symbol)}, err)
		return nil, err
	}
	return e.Submit(ctx, accountID, order)
}

// Submit executes one order. On success exactly one transaction is appended;
// on any error the ledger is untouched.
func (e *Engine) Submit(ctx context.Context, accountID uint, order domain.Order) (*domain.Transaction, error) {
	start := time.Now()
	order.Symbol = domain.NormalizeSymbol(order.Symbol)

	tx, err := e.execute(ctx, accountID, order)
	e.metrics.RecordOrder(time.Since(start), err)

	if err != nil {
		e.logRejected(accountID, order, err)
		return nil, err
	}

	e.logger.Info("Order filled",
		slog.Uint64("account", uint64(accountID)),
		slog.String("order_id", tx.OrderID),
		slog.String("side", string(tx.Side)),
		slog.String("symbol", tx.Symbol),
		slog.Int64("shares", tx.Shares),
		slog.String("price", tx.Price.String()),
		slog.Duration("latency", time.Since(start)))
	return tx, nil
}

func (e *Engine) execute(ctx context.Context, accountID uint, order domain.Order) (*domain.Transaction, error) {
	// 1. Input validation (no I/O)
	if err := order.Validate(); err != nil {
		return nil, err
	}

	// 2. Price
	quote, err := e.quotes.Lookup(ctx, order.Symbol)
	if err != nil {
		return nil, err
	}
	if !quote.Valid() {
		return nil, domain.NewOrderError(domain.ErrUnknownSymbol, order.Symbol, "stock symbol not valid")
	}
	symbol := quote.Symbol
	amount := quote.Cost(order.Shares)

	// 3. Pre-check against current balances
	switch order.Side {
	case domain.SideBuy:
		account, err := e.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if !account.CanAfford(amount) {
			return nil, domain.NewOrderError(domain.ErrInsufficientFunds, symbol,
				"need %s, cash on hand %s", amount.StringFixed(2), account.Cash.StringFixed(2))
		}

	case domain.SideSell:
		// Surfaces NotFound for a missing account before the position check
		if _, err := e.store.GetAccount(ctx, accountID); err != nil {
			return nil, err
		}
		pos, err := e.store.GetPosition(ctx, accountID, symbol)
		if err != nil {
			return nil, err
		}
		if !pos.CanSell(order.Shares) {
			held := int64(0)
			if pos != nil {
				held = pos.Shares
			}
			return nil, domain.NewOrderError(domain.ErrInsufficientShares, symbol,
				"requested %d, held %d", order.Shares, held)
		}
	}

	// 4. Commit. The store re-checks under its own lock, so a concurrent order
	// that won the race still yields InsufficientFunds/InsufficientShares here.
	return e.store.ApplyOrder(ctx, accountID, order.Side, symbol, order.Shares, quote.Price)
}

func (e *Engine) logRejected(accountID uint, order domain.Order, err error) {
	level := slog.LevelInfo
	if !isBusinessRejection(err) {
		level = slog.LevelError
	}
	e.logger.Log(context.Background(), level, "Order rejected",
		slog.Uint64("account", uint64(accountID)),
		slog.String("side", string(order.Side)),
		slog.String("symbol", order.Symbol),
		slog.Int64("shares", order.Shares),
		slog.String("kind", domain.KindOf(err)),
		slog.Any("error", err))
}

// isBusinessRejection reports whether err is a deterministic rule violation
// rather than an infrastructure fault.
func isBusinessRejection(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindStoreUnavailable, domain.KindQuoteUnavailable, domain.KindInternal:
		return false
	}
	return true
}
