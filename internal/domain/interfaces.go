package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// QuoteSource returns the current price of a symbol.
// Lookup returns ErrUnknownSymbol when the source has no data, and an error
// wrapping ErrQuoteUnavailable when the source cannot be reached.
type QuoteSource interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// LedgerReader is the read side of the ledger.
type LedgerReader interface {
	GetAccount(ctx context.Context, accountID uint) (*Account, error)
	GetPosition(ctx context.Context, accountID uint, symbol string) (*Position, error)
	ListPositions(ctx context.Context, accountID uint) ([]Position, error)
	ListTransactions(ctx context.Context, accountID uint) ([]Transaction, error)
}

// LedgerStore owns accounts, positions and transactions.
// ApplyOrder is the only mutation of existing accounts and is atomic.
type LedgerStore interface {
	LedgerReader
	ApplyOrder(ctx context.Context, accountID uint, side Side, symbol string, shares int64, unitPrice decimal.Decimal) (*Transaction, error)
}
