package models

import "github.com/shopspring/decimal"

// Account is the single trading account of a user: a cash balance plus the
// per-symbol holdings bought with it.
type Account struct {
	Base
	UserID         string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"balance"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"opening_balance"`
	Currency       string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Version        int64           `gorm:"not null;default:0" json:"-"`
	Holdings       []Holding       `gorm:"foreignKey:AccountID" json:"holdings,omitempty"`
}

// Holding is an open position. Rows with zero quantity are deleted, never stored.
type Holding struct {
	Base
	AccountID string          `gorm:"type:uuid;not null;uniqueIndex:idx_holdings_account_symbol" json:"account_id"`
	Symbol    string          `gorm:"size:20;not null;uniqueIndex:idx_holdings_account_symbol" json:"symbol"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	AvgPrice  decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"avg_price"`
}
