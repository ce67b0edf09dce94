package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/ledger"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// AccountSnapshot is an account's cash balance and open holdings.
type AccountSnapshot struct {
	AccountID      string            `json:"account_id"`
	Currency       string            `json:"currency"`
	Balance        decimal.Decimal   `json:"balance"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	Holdings       []ledger.Position `json:"holdings"`
}

// TradeResult is returned by a successful order: the account after the fill
// and the trade-log entry it produced.
type TradeResult struct {
	Balance  decimal.Decimal   `json:"balance"`
	Holdings []ledger.Position `json:"holdings"`
	Trade    *models.Trade     `json:"trade"`
}

// TradingServicer executes market orders against a user's account.
type TradingServicer interface {
	ExecuteBuy(ctx context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error)
	ExecuteSell(ctx context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error)
	GetAccount(ctx context.Context, userID string) (*AccountSnapshot, error)
}

// PortfolioSource selects how positions are derived.
type PortfolioSource string

const (
	// PortfolioSourceSnapshot reads the stored holdings.
	PortfolioSourceSnapshot PortfolioSource = "snapshot"
	// PortfolioSourceReplay rebuilds holdings from the trade log.
	PortfolioSourceReplay PortfolioSource = "replay"
)

// PortfolioHolding is one position valued at the last traded price.
type PortfolioHolding struct {
	Symbol       string          `json:"symbol"`
	Quantity     int64           `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
	LTP          decimal.Decimal `json:"ltp"`
	Invested     decimal.Decimal `json:"invested"`
	CurrentValue decimal.Decimal `json:"current_value"`
	PnL          decimal.Decimal `json:"pnl"`
	PnLPercent   decimal.Decimal `json:"pnl_percent"`
}

// PortfolioDisplay carries currency-formatted totals for clients.
type PortfolioDisplay struct {
	Balance       string `json:"balance"`
	TotalInvested string `json:"total_invested"`
	TotalCurrent  string `json:"total_current"`
	OverallPnL    string `json:"overall_pnl"`
}

// Portfolio is the valued view of an account.
type Portfolio struct {
	Source        PortfolioSource    `json:"source"`
	Currency      string             `json:"currency"`
	Balance       decimal.Decimal    `json:"balance"`
	Holdings      []PortfolioHolding `json:"holdings"`
	TotalInvested decimal.Decimal    `json:"total_invested"`
	TotalCurrent  decimal.Decimal    `json:"total_current"`
	OverallPnL    decimal.Decimal    `json:"overall_pnl"`
	Display       PortfolioDisplay   `json:"display"`
}

// LedgerReport is the outcome of comparing stored holdings with a replay of
// the trade log.
type LedgerReport struct {
	AccountID     string               `json:"account_id"`
	Consistent    bool                 `json:"consistent"`
	TradesChecked int                  `json:"trades_checked"`
	Discrepancies []ledger.Discrepancy `json:"discrepancies,omitempty"`
	ReplayError   string               `json:"replay_error,omitempty"`
}

// PortfolioServicer derives valued portfolio views.
type PortfolioServicer interface {
	GetPortfolio(ctx context.Context, userID string, source PortfolioSource) (*Portfolio, error)
	VerifyLedger(ctx context.Context, userID string) (*LedgerReport, error)
}

// TradeFilter holds optional history filters as received from the client.
// From and To accept YYYY-MM-DD or RFC 3339.
type TradeFilter struct {
	Symbol string
	Side   string
	From   string
	To     string
}

// TradeView is a trade-log entry annotated for display.
type TradeView struct {
	models.Trade
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`
	// AvgPriceApproximate marks a SELL whose average cost was not recorded at
	// sale time and was filled in from the current holding.
	AvgPriceApproximate bool `json:"avg_price_approximate,omitempty"`
}

// HistoryServicer reads the trade log.
type HistoryServicer interface {
	GetTrades(ctx context.Context, userID string, filter TradeFilter) ([]TradeView, error)
}

// InstrumentServicer manages the mock instrument catalog.
type InstrumentServicer interface {
	ListInstruments(ctx context.Context, kind models.InstrumentKind, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error)
	GetInstrument(ctx context.Context, kind models.InstrumentKind, symbol string) (*models.Instrument, error)
	SeedInstruments(ctx context.Context, kind models.InstrumentKind) (int, error)
	UpdatePrice(ctx context.Context, symbol string, price, changePercent decimal.Decimal) (*models.Instrument, error)
}

// WatchlistServicer manages the symbols a user follows.
type WatchlistServicer interface {
	GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	AddSymbol(ctx context.Context, userID, symbol string) ([]models.WatchlistItem, error)
	RemoveSymbol(ctx context.Context, userID, symbol string) ([]models.WatchlistItem, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// TradingOptions bounds the engine's external calls.
type TradingOptions struct {
	PriceTimeout time.Duration
	StoreTimeout time.Duration
	LockTimeout  time.Duration
	// RetryLimit is how many times an order is attempted when the account
	// version moved underneath it.
	RetryLimit int
	// MaxPriceDeviationPct rejects orders priced further than this from the
	// last traded price. Zero disables the check.
	MaxPriceDeviationPct decimal.Decimal
}

// DefaultTradingOptions returns conservative bounds suitable for tests and development.
func DefaultTradingOptions() TradingOptions {
	return TradingOptions{
		PriceTimeout: 2 * time.Second,
		StoreTimeout: 5 * time.Second,
		LockTimeout:  3 * time.Second,
		RetryLimit:   3,
	}
}
