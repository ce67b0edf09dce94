// Package pricing resolves instrument symbols to their last traded price.
package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol is returned when no instrument carries the symbol.
var ErrUnknownSymbol = errors.New("pricing: unknown symbol")

// Quote is a point-in-time price for one symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Source looks up quotes. Implementations must honour ctx cancellation.
type Source interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// Invalidator drops any cached quote for symbol.
type Invalidator interface {
	Invalidate(symbol string)
}
