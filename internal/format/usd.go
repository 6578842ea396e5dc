// Package format renders ledger amounts for display.
package format

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD formats amount as dollars with thousands separators, e.g. "$1,234.56".
// Amounts are rounded half away from zero to whole cents.
func USD(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	cents := amount.Mul(factor).Round(0)
	return money.New(cents.IntPart(), money.USD).Display()
}

// NullUSD formats a possibly unavailable amount, using "N/A" when invalid.
func NullUSD(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return "N/A"
	}
	return USD(amount.Decimal)
}
