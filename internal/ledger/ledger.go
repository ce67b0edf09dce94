// Package ledger holds the position arithmetic shared by trade execution and
// trade-log replay. Both paths go through Book.Apply so a consistent account
// and its replayed log agree to the cent.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// PriceScale is the number of decimal places average prices are rounded to.
const PriceScale = 2

// Domain rejections. Callers map these to transport errors.
var (
	ErrInvalidOrder         = errors.New("ledger: quantity and price must be positive")
	ErrNoHolding            = errors.New("ledger: no holding for symbol")
	ErrInsufficientQuantity = errors.New("ledger: insufficient quantity")
	ErrInsufficientFunds    = errors.New("ledger: insufficient funds")
)

// Position is an open holding in one symbol.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// Invested is the cost basis of the position at its average price.
func (p Position) Invested() decimal.Decimal {
	return p.AvgPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// Order is a request to move quantity of symbol at a unit price.
type Order struct {
	Side     Side
	Symbol   string
	Quantity int64
	Price    decimal.Decimal
}

// Validate checks the order's numeric preconditions.
func (o Order) Validate() error {
	if o.Quantity <= 0 || !o.Price.IsPositive() {
		return ErrInvalidOrder
	}
	switch o.Side {
	case Buy, Sell:
		return nil
	}
	return fmt.Errorf("ledger: unknown side %q", o.Side)
}

// Notional is price times quantity.
func (o Order) Notional() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Quantity))
}

// Fill describes the effect of one applied order.
type Fill struct {
	Order Order
	// AvgPriceAtSale is the average cost before a SELL was applied.
	AvgPriceAtSale *decimal.Decimal
	// Position is the holding after the fill. Closed reports that it reached
	// zero and must be removed.
	Position Position
	Closed   bool
	Balance  decimal.Decimal
}

// BlendAverage returns the volume-weighted average of an existing position
// and a purchase, rounded to PriceScale.
func BlendAverage(oldAvg decimal.Decimal, oldQty int64, price decimal.Decimal, qty int64) decimal.Decimal {
	total := oldQty + qty
	if total == 0 {
		return decimal.Zero
	}
	cost := oldAvg.Mul(decimal.NewFromInt(oldQty)).Add(price.Mul(decimal.NewFromInt(qty)))
	return cost.Div(decimal.NewFromInt(total)).Round(PriceScale)
}

// RealizedPnL is the profit locked in by selling qty at price against avgCost.
func RealizedPnL(price, avgCost decimal.Decimal, qty int64) decimal.Decimal {
	return price.Sub(avgCost).Mul(decimal.NewFromInt(qty)).Round(PriceScale)
}

// Book is an account's cash balance and open positions.
type Book struct {
	Balance   decimal.Decimal
	Positions map[string]Position
}

// NewBook returns a book holding only cash.
func NewBook(balance decimal.Decimal) *Book {
	return &Book{Balance: balance, Positions: make(map[string]Position)}
}

// Apply validates order against the book and, if accepted, mutates it.
// A rejected order leaves the book untouched.
func (b *Book) Apply(order Order) (Fill, error) {
	if err := order.Validate(); err != nil {
		return Fill{}, err
	}

	pos, held := b.Positions[order.Symbol]
	notional := order.Notional()

	switch order.Side {
	case Buy:
		if notional.GreaterThan(b.Balance) {
			return Fill{}, ErrInsufficientFunds
		}
		if held {
			pos.AvgPrice = BlendAverage(pos.AvgPrice, pos.Quantity, order.Price, order.Quantity)
			pos.Quantity += order.Quantity
		} else {
			// Each zero-crossing starts a fresh cost basis.
			pos = Position{Symbol: order.Symbol, Quantity: order.Quantity, AvgPrice: order.Price.Round(PriceScale)}
		}
		b.Balance = b.Balance.Sub(notional)
		b.Positions[order.Symbol] = pos
		return Fill{Order: order, Position: pos, Balance: b.Balance}, nil

	default:
		if !held {
			return Fill{}, ErrNoHolding
		}
		if pos.Quantity < order.Quantity {
			return Fill{}, ErrInsufficientQuantity
		}
		avg := pos.AvgPrice
		pos.Quantity -= order.Quantity
		b.Balance = b.Balance.Add(notional)
		fill := Fill{Order: order, AvgPriceAtSale: &avg, Position: pos, Balance: b.Balance}
		if pos.Quantity == 0 {
			delete(b.Positions, order.Symbol)
			fill.Closed = true
		} else {
			b.Positions[order.Symbol] = pos
		}
		return fill, nil
	}
}

// Sorted returns the open positions ordered by symbol.
func (b *Book) Sorted() []Position {
	out := make([]Position, 0, len(b.Positions))
	for _, p := range b.Positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Replay rebuilds a book by applying orders in execution order to the opening
// balance. Any rejection means the log itself is inconsistent.
func Replay(opening decimal.Decimal, orders []Order) (*Book, error) {
	book := NewBook(opening)
	for i, o := range orders {
		if _, err := book.Apply(o); err != nil {
			return nil, fmt.Errorf("replay entry %d (%s %d %s): %w", i, o.Side, o.Quantity, o.Symbol, err)
		}
	}
	return book, nil
}

// Discrepancy is one difference between two books.
type Discrepancy struct {
	Symbol   string `json:"symbol,omitempty"`
	Field    string `json:"field"`
	Snapshot string `json:"snapshot"`
	Replayed string `json:"replayed"`
}

// Diff lists every difference between a stored snapshot and a replayed book.
func Diff(snapshot, replayed *Book) []Discrepancy {
	var out []Discrepancy
	if !snapshot.Balance.Equal(replayed.Balance) {
		out = append(out, Discrepancy{Field: "balance", Snapshot: snapshot.Balance.String(), Replayed: replayed.Balance.String()})
	}

	symbols := make(map[string]struct{})
	for s := range snapshot.Positions {
		symbols[s] = struct{}{}
	}
	for s := range replayed.Positions {
		symbols[s] = struct{}{}
	}
	keys := make([]string, 0, len(symbols))
	for s := range symbols {
		keys = append(keys, s)
	}
	sort.Strings(keys)

	for _, s := range keys {
		a, inSnap := snapshot.Positions[s]
		r, inReplay := replayed.Positions[s]
		switch {
		case !inSnap:
			out = append(out, Discrepancy{Symbol: s, Field: "quantity", Snapshot: "0", Replayed: fmt.Sprint(r.Quantity)})
		case !inReplay:
			out = append(out, Discrepancy{Symbol: s, Field: "quantity", Snapshot: fmt.Sprint(a.Quantity), Replayed: "0"})
		default:
			if a.Quantity != r.Quantity {
				out = append(out, Discrepancy{Symbol: s, Field: "quantity", Snapshot: fmt.Sprint(a.Quantity), Replayed: fmt.Sprint(r.Quantity)})
			}
			if !a.AvgPrice.Equal(r.AvgPrice) {
				out = append(out, Discrepancy{Symbol: s, Field: "avg_price", Snapshot: a.AvgPrice.String(), Replayed: r.AvgPrice.String()})
			}
		}
	}
	return out
}
