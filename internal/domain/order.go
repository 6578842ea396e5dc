package domain

import (
	"strconv"
	"strings"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", NewOrderError(ErrInvalidOrder, "", "side must be BUY or SELL, got %q", s)
	}
}

// Order represents a request to buy or sell whole shares of a symbol.
type Order struct {
	Symbol string
	Shares int64
	Side   Side
}

// Validate checks the order before any lookup or store access.
func (o Order) Validate() error {
	if NormalizeSymbol(o.Symbol) == "" {
		return NewOrderError(ErrInvalidOrder, "", "stock symbol cannot be blank")
	}
	if o.Shares <= 0 {
		return NewOrderError(ErrInvalidOrder, o.Symbol, "share amount must be a positive integer")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return NewOrderError(ErrInvalidOrder, o.Symbol, "side must be BUY or SELL")
	}
	return nil
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParseShares accepts only ASCII digits and rejects zero. Signs, decimal
// points, whitespace and empty input are all rejected.
func ParseShares(raw string) (int64, error) {
	if raw == "" {
		return 0, NewOrderError(ErrInvalidOrder, "", "share amount cannot be blank")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, NewOrderError(ErrInvalidOrder, "", "share amount must be a positive integer, got %q", raw)
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NewOrderError(ErrInvalidOrder, "", "share amount out of range: %q", raw)
	}
	if n == 0 {
		return 0, NewOrderError(ErrInvalidOrder, "", "share amount must be a positive integer, got %q", raw)
	}
	return n, nil
}

// ParseOrder builds a validated Order from raw user input.
func ParseOrder(symbol, shares, side string) (Order, error) {
	s, err := ParseSide(side)
	if err != nil {
		return Order{}, err
	}
	n, err := ParseShares(shares)
	if err != nil {
		return Order{}, err
	}
	o := Order{Symbol: NormalizeSymbol(symbol), Shares: n, Side: s}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}
