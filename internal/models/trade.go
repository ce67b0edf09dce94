package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"papertrade/internal/ids"
)

// TradeSide is the direction of an executed order.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Trade is an immutable trade-log entry written once per executed order.
type Trade struct {
	ID             string           `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID      string           `gorm:"type:uuid;not null;index:idx_trades_account_executed" json:"account_id"`
	OrderRef       string           `gorm:"size:26;uniqueIndex;not null" json:"order_ref"`
	Symbol         string           `gorm:"size:20;not null;index" json:"symbol"`
	Side           TradeSide        `gorm:"size:4;not null" json:"side"`
	Quantity       int64            `gorm:"not null" json:"quantity"`
	Price          decimal.Decimal  `gorm:"type:numeric(20,4);not null" json:"price"`
	AvgPriceAtSale *decimal.Decimal `gorm:"type:numeric(20,4)" json:"avg_price_at_sale,omitempty"`
	ExecutedAt     time.Time        `gorm:"not null;index:idx_trades_account_executed" json:"executed_at"`
}

// BeforeCreate fills in identifiers the engine did not set explicitly.
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	if t.OrderRef == "" {
		t.OrderRef = ids.NewOrderRef()
	}
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate rejects in-place edits of the trade log.
func (t *Trade) BeforeUpdate(tx *gorm.DB) error {
	return ErrTradeImmutable
}

// BeforeDelete rejects removal from the trade log.
func (t *Trade) BeforeDelete(tx *gorm.DB) error {
	return ErrTradeImmutable
}
