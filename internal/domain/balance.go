package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CanAfford reports whether cash strictly exceeds cost.
// An exact-balance purchase is rejected; this boundary is intentional.
func (a *Account) CanAfford(cost decimal.Decimal) bool {
	return a.Cash.GreaterThan(cost)
}

// Debit removes cost from cash. Returns ErrInsufficientFunds unless CanAfford.
func (a *Account) Debit(symbol string, cost decimal.Decimal) error {
	if !a.CanAfford(cost) {
		return NewOrderError(ErrInsufficientFunds, symbol,
			"need %s, cash on hand %s", cost.StringFixed(2), a.Cash.StringFixed(2))
	}
	a.Cash = a.Cash.Sub(cost)
	return nil
}

// Credit adds proceeds to cash.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Cash = a.Cash.Add(amount)
}

// VerifyInvariant checks that cash is non-negative.
// Call this after any state change to ensure data integrity.
func (a *Account) VerifyInvariant() {
	if a.Cash.IsNegative() {
		panic(fmt.Sprintf("ACCOUNT_INVARIANT_NEGATIVE_CASH: account=%d cash=%s", a.ID, a.Cash))
	}
}

// CanSell reports whether the position holds at least shares.
// A nil position holds nothing.
func (p *Position) CanSell(shares int64) bool {
	return p != nil && p.Shares >= shares
}

// Add increases the share count.
func (p *Position) Add(shares int64) {
	p.Shares += shares
}

// Remove decreases the share count. Returns ErrInsufficientShares if fewer are held.
func (p *Position) Remove(shares int64) error {
	if !p.CanSell(shares) {
		held := int64(0)
		symbol := ""
		if p != nil {
			held, symbol = p.Shares, p.Symbol
		}
		return NewOrderError(ErrInsufficientShares, symbol, "requested %d, held %d", shares, held)
	}
	p.Shares -= shares
	return nil
}

// IsClosed reports whether the position must be deleted.
func (p *Position) IsClosed() bool {
	return p.Shares == 0
}

// VerifyInvariant checks that the share count is non-negative.
func (p *Position) VerifyInvariant() {
	if p.Shares < 0 {
		panic(fmt.Sprintf("POSITION_INVARIANT_NEGATIVE_SHARES: account=%d symbol=%s shares=%d",
			p.AccountID, p.Symbol, p.Shares))
	}
}
