package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/ledger"
	"papertrade/internal/models"
)

const dateLayout = "2006-01-02"

// historyService reads an account's trade log.
type historyService struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewHistoryService creates a new HistoryServicer.
func NewHistoryService(db *gorm.DB, opts TradingOptions) HistoryServicer {
	return &historyService{db: db, timeout: opts.StoreTimeout}
}

// tradeQuery is a parsed TradeFilter.
type tradeQuery struct {
	symbol string
	side   models.TradeSide
	from   *time.Time
	to     *time.Time
}

// parseFilter validates the raw filter. A date-only To covers that whole day.
func parseFilter(f TradeFilter) (tradeQuery, error) {
	var q tradeQuery

	if s := strings.TrimSpace(f.Symbol); s != "" {
		sym, ok := models.NormalizeSymbol(s)
		if !ok {
			return q, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid symbol %q", f.Symbol))
		}
		q.symbol = sym
	}

	if s := strings.TrimSpace(f.Side); s != "" {
		side := models.TradeSide(strings.ToUpper(s))
		if side != models.TradeSideBuy && side != models.TradeSideSell {
			return q, apperrors.WithMessage(apperrors.ErrInvalidInput, "side must be BUY or SELL")
		}
		q.side = side
	}

	if f.From != "" {
		from, _, err := parseBound(f.From)
		if err != nil {
			return q, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must be YYYY-MM-DD or RFC 3339")
		}
		q.from = &from
	}
	if f.To != "" {
		to, dateOnly, err := parseBound(f.To)
		if err != nil {
			return q, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must be YYYY-MM-DD or RFC 3339")
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		} else {
			to = to.Add(time.Nanosecond)
		}
		q.to = &to
	}
	if q.from != nil && q.to != nil && !q.from.Before(*q.to) {
		return q, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	return q, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

// GetTrades returns the user's trades newest first. SELL entries carry their
// realized P&L; entries logged without an average cost use the current
// holding's average and are flagged approximate.
func (s *historyService) GetTrades(ctx context.Context, userID string, filter TradeFilter) ([]TradeView, error) {
	q, err := parseFilter(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	db := s.db.WithContext(ctx)

	account, err := loadAccount(db, userID)
	if err != nil {
		return nil, mapStoreError(ctx, err)
	}

	query := db.Where("account_id = ?", account.ID)
	if q.symbol != "" {
		query = query.Where("symbol = ?", q.symbol)
	}
	if q.side != "" {
		query = query.Where("side = ?", q.side)
	}
	if q.from != nil {
		query = query.Where("executed_at >= ?", *q.from)
	}
	if q.to != nil {
		query = query.Where("executed_at < ?", *q.to)
	}

	var trades []models.Trade
	if err := query.Order("executed_at DESC").Order("order_ref DESC").Find(&trades).Error; err != nil {
		return nil, mapStoreError(ctx, err)
	}

	held := make(map[string]models.Holding, len(account.Holdings))
	for _, h := range account.Holdings {
		held[h.Symbol] = h
	}

	views := make([]TradeView, len(trades))
	for i, t := range trades {
		views[i] = TradeView{Trade: t}
		if t.Side != models.TradeSideSell {
			continue
		}
		avg := t.AvgPriceAtSale
		if avg == nil {
			h, ok := held[t.Symbol]
			if !ok {
				continue
			}
			a := h.AvgPrice
			avg = &a
			views[i].AvgPriceAtSale = avg
			views[i].AvgPriceApproximate = true
		}
		pnl := ledger.RealizedPnL(t.Price, *avg, t.Quantity)
		views[i].RealizedPnL = &pnl
	}
	return views, nil
}
