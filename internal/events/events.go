// Package events publishes committed trades to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TypeTradeExecuted is the event type for a committed order.
const TypeTradeExecuted = "trade.executed"

// TradeExecuted describes one committed trade together with the account
// state it produced.
type TradeExecuted struct {
	Type           string           `json:"type"`
	OrderRef       string           `json:"order_ref"`
	TradeID        string           `json:"trade_id"`
	AccountID      string           `json:"account_id"`
	UserID         string           `json:"user_id"`
	Symbol         string           `json:"symbol"`
	Side           string           `json:"side"`
	Quantity       int64            `json:"quantity"`
	Price          decimal.Decimal  `json:"price"`
	AvgPriceAtSale *decimal.Decimal `json:"avg_price_at_sale,omitempty"`
	Balance        decimal.Decimal  `json:"balance"`
	ExecutedAt     time.Time        `json:"executed_at"`
}

// Publisher delivers trade events. Publishing happens after commit, so a
// failure never affects the trade itself.
type Publisher interface {
	PublishTrade(ctx context.Context, evt TradeExecuted) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// PublishTrade implements Publisher.
func (NopPublisher) PublishTrade(context.Context, TradeExecuted) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

var _ Publisher = NopPublisher{}
