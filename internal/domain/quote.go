package domain

import "github.com/shopspring/decimal"

// Quote is a symbol's current price and display name as reported by a quote source.
type Quote struct {
	Symbol string          `json:"symbol"` // Canonical symbol as reported by the source
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Valid reports whether the quote carries a usable positive price.
func (q *Quote) Valid() bool {
	return q != nil && q.Symbol != "" && q.Price.IsPositive()
}

// Cost returns price × shares at the quote's own precision.
func (q *Quote) Cost(shares int64) decimal.Decimal {
	return q.Price.Mul(decimal.NewFromInt(shares))
}
