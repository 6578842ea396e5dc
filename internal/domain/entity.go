package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's cash balance. Cash is stored as exact text so no
// precision is lost to sqlite's numeric affinity.
type Account struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Username  string          `gorm:"uniqueIndex;not null" json:"username"`
	Cash      decimal.Decimal `gorm:"type:text;not null" json:"cash"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Position is an account's current holding of one symbol.
// A row with zero shares never exists; it is deleted instead.
type Position struct {
	AccountID uint      `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	Symbol    string    `gorm:"primaryKey" json:"symbol"`
	Shares    int64     `gorm:"not null" json:"shares"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is an append-only record of an executed order.
// ID is monotonic, so ordering by it yields insertion order.
type Transaction struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    string          `gorm:"uniqueIndex;not null" json:"order_id"`
	AccountID  uint            `gorm:"index;not null" json:"account_id"`
	Side       Side            `gorm:"type:text;not null" json:"side"`
	Symbol     string          `gorm:"index;not null" json:"symbol"`
	Shares     int64           `gorm:"not null" json:"shares"`
	Price      decimal.Decimal `gorm:"type:text;not null" json:"price"` // Unit price at execution
	ExecutedAt time.Time       `gorm:"not null" json:"executed_at"`
}

// Amount returns shares × unit price.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}

// CashDelta returns the signed effect of the transaction on cash.
func (t *Transaction) CashDelta() decimal.Decimal {
	if t.Side == SideBuy {
		return t.Amount().Neg()
	}
	return t.Amount()
}
