package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/ledger"
	"papertrade/internal/logger"
	"papertrade/internal/money"
	"papertrade/internal/pricing"
)

// quoteConcurrency caps parallel price lookups for one portfolio.
const quoteConcurrency = 8

var hundred = decimal.NewFromInt(100)

// portfolioService values an account's positions at the last traded price.
type portfolioService struct {
	db     *gorm.DB
	prices pricing.Source
	opts   TradingOptions
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, prices pricing.Source, opts TradingOptions) PortfolioServicer {
	return &portfolioService{db: db, prices: prices, opts: opts}
}

// GetPortfolio values the user's positions. The snapshot source reads the
// stored holdings; replay rebuilds them from the trade log.
func (s *portfolioService) GetPortfolio(ctx context.Context, userID string, source PortfolioSource) (*Portfolio, error) {
	if source == "" {
		source = PortfolioSourceSnapshot
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	db := s.db.WithContext(storeCtx)

	account, err := loadAccount(db, userID)
	if err != nil {
		return nil, mapStoreError(storeCtx, err)
	}

	var book *ledger.Book
	switch source {
	case PortfolioSourceSnapshot:
		book = bookOf(account)
	case PortfolioSourceReplay:
		trades, err := loadTrades(db, account.ID)
		if err != nil {
			return nil, mapStoreError(storeCtx, err)
		}
		book, err = ledger.Replay(account.OpeningBalance, ordersOf(trades))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrIntegrityViolation, err)
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown portfolio source %q", source))
	}

	positions := book.Sorted()
	ltps, err := s.quoteAll(ctx, positions)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		Source:        source,
		Currency:      account.Currency,
		Balance:       book.Balance,
		Holdings:      make([]PortfolioHolding, 0, len(positions)),
		TotalInvested: decimal.Zero,
		TotalCurrent:  decimal.Zero,
	}
	for i, pos := range positions {
		h := valueHolding(pos, ltps[i])
		p.Holdings = append(p.Holdings, h)
		p.TotalInvested = p.TotalInvested.Add(h.Invested)
		p.TotalCurrent = p.TotalCurrent.Add(h.CurrentValue)
	}
	p.OverallPnL = p.TotalCurrent.Sub(p.TotalInvested)
	p.Display = PortfolioDisplay{
		Balance:       money.Format(p.Balance, p.Currency),
		TotalInvested: money.Format(p.TotalInvested, p.Currency),
		TotalCurrent:  money.Format(p.TotalCurrent, p.Currency),
		OverallPnL:    money.Format(p.OverallPnL, p.Currency),
	}
	return p, nil
}

// quoteAll fetches the last traded price of every position in parallel.
// A symbol that has left the catalog is valued at its average cost.
func (s *portfolioService) quoteAll(ctx context.Context, positions []ledger.Position) ([]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.PriceTimeout)
	defer cancel()

	out := make([]decimal.Decimal, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteConcurrency)
	for i, pos := range positions {
		g.Go(func() error {
			q, err := s.prices.Quote(gctx, pos.Symbol)
			if err != nil {
				if errors.Is(err, pricing.ErrUnknownSymbol) {
					logger.Get().Warnw("holding has no catalog price", "symbol", pos.Symbol)
					out[i] = pos.AvgPrice
					return nil
				}
				return err
			}
			out[i] = q.Price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamUnavailable, err)
	}
	return out, nil
}

func valueHolding(pos ledger.Position, ltp decimal.Decimal) PortfolioHolding {
	qty := decimal.NewFromInt(pos.Quantity)
	invested := pos.Invested().Round(ledger.PriceScale)
	current := ltp.Mul(qty).Round(ledger.PriceScale)
	pnl := current.Sub(invested)

	pct := decimal.Zero
	if invested.IsPositive() {
		pct = pnl.Div(invested).Mul(hundred).Round(ledger.PriceScale)
	}
	return PortfolioHolding{
		Symbol:       pos.Symbol,
		Quantity:     pos.Quantity,
		AvgPrice:     pos.AvgPrice,
		LTP:          ltp,
		Invested:     invested,
		CurrentValue: current,
		PnL:          pnl,
		PnLPercent:   pct,
	}
}

// VerifyLedger replays the trade log and compares it with the stored
// balance and holdings. A mismatch returns the report together with an
// ErrIntegrityViolation.
func (s *portfolioService) VerifyLedger(ctx context.Context, userID string) (*LedgerReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	var (
		report *LedgerReport
		err    error
	)
	// Read account and log in one transaction so a concurrent trade cannot
	// land between the two reads.
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = verify(tx, userID)
		return err
	})
	if txErr != nil {
		return nil, mapStoreError(ctx, txErr)
	}

	if !report.Consistent {
		logger.Get().Errorw("ledger integrity violation",
			"user_id", userID,
			"account_id", report.AccountID,
			"discrepancies", len(report.Discrepancies),
			"replay_error", report.ReplayError,
		)
		return report, apperrors.Wrap(apperrors.ErrIntegrityViolation,
			fmt.Errorf("account %s: %d discrepancies", report.AccountID, len(report.Discrepancies)))
	}
	return report, nil
}

func verify(tx *gorm.DB, userID string) (*LedgerReport, error) {
	account, err := loadAccount(tx, userID)
	if err != nil {
		return nil, err
	}
	trades, err := loadTrades(tx, account.ID)
	if err != nil {
		return nil, err
	}

	report := &LedgerReport{AccountID: account.ID, TradesChecked: len(trades)}
	replayed, err := ledger.Replay(account.OpeningBalance, ordersOf(trades))
	if err != nil {
		report.ReplayError = err.Error()
		return report, nil
	}
	report.Discrepancies = ledger.Diff(bookOf(account), replayed)
	report.Consistent = len(report.Discrepancies) == 0
	return report, nil
}
