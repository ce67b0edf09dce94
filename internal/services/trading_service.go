package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/events"
	"papertrade/internal/ledger"
	"papertrade/internal/locking"
	"papertrade/internal/logger"
	"papertrade/internal/models"
	"papertrade/internal/pricing"
)

// publishTimeout bounds the post-commit event write.
const publishTimeout = 5 * time.Second

// tradingService executes orders. Every order for an account runs under that
// account's lock, and the balance, holding and trade-log writes commit together.
type tradingService struct {
	db        *gorm.DB
	store     ledgerWriter
	prices    pricing.Source
	locker    locking.Locker
	publisher events.Publisher
	opts      TradingOptions
}

// NewTradingService creates a new TradingServicer.
func NewTradingService(db *gorm.DB, prices pricing.Source, locker locking.Locker, publisher events.Publisher, opts TradingOptions) TradingServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.RetryLimit < 1 {
		opts.RetryLimit = 1
	}
	return &tradingService{
		db:        db,
		store:     newLedgerStore(db, opts.StoreTimeout),
		prices:    prices,
		locker:    locker,
		publisher: publisher,
		opts:      opts,
	}
}

// ExecuteBuy buys quantity of symbol at price for the user's account.
func (s *tradingService) ExecuteBuy(ctx context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error) {
	return s.execute(ctx, userID, ledger.Order{Side: ledger.Buy, Symbol: symbol, Quantity: quantity, Price: price})
}

// ExecuteSell sells quantity of symbol at price from the user's account.
func (s *tradingService) ExecuteSell(ctx context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error) {
	return s.execute(ctx, userID, ledger.Order{Side: ledger.Sell, Symbol: symbol, Quantity: quantity, Price: price})
}

func (s *tradingService) execute(ctx context.Context, userID string, order ledger.Order) (*TradeResult, error) {
	order, err := normalizeOrder(order)
	if err != nil {
		return nil, err
	}

	quote, err := s.quote(ctx, order.Symbol)
	switch {
	case err == nil:
		if err := s.checkDeviation(order, quote); err != nil {
			return nil, err
		}
	case order.Side == ledger.Sell && errors.Is(err, apperrors.ErrUnknownSymbol):
		// Delisted positions can still be closed, at the client's price.
		held, herr := s.holds(ctx, userID, order.Symbol)
		if herr != nil {
			return nil, herr
		}
		if !held {
			return nil, err
		}
		logger.Get().Infow("selling holding without a catalog quote",
			"user_id", userID,
			"symbol", order.Symbol,
		)
	default:
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	release, err := s.locker.Acquire(lockCtx, locking.AccountKey(userID))
	cancel()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamUnavailable, err)
	}
	defer release()

	var exec *execution
	for attempt := 1; ; attempt++ {
		exec, err = s.store.apply(ctx, userID, order)
		if err == nil {
			break
		}
		if !errors.Is(err, errStaleAccount) {
			return nil, err
		}
		if attempt >= s.opts.RetryLimit {
			return nil, apperrors.Wrap(apperrors.ErrConcurrentModification, err)
		}
		logger.Get().Debugw("retrying order on stale account",
			"user_id", userID,
			"symbol", order.Symbol,
			"attempt", attempt,
		)
	}

	logger.Get().Infow("trade executed",
		"user_id", userID,
		"order_ref", exec.Trade.OrderRef,
		"side", order.Side,
		"symbol", order.Symbol,
		"quantity", order.Quantity,
		"price", order.Price.String(),
		"balance", exec.Fill.Balance.String(),
	)
	s.publish(ctx, userID, exec)

	return &TradeResult{
		Balance:  exec.Book.Balance,
		Holdings: exec.Book.Sorted(),
		Trade:    exec.Trade,
	}, nil
}

// holds reports whether the user's account has a position in symbol.
func (s *tradingService) holds(ctx context.Context, userID, symbol string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	var n int64
	err := s.db.WithContext(ctx).Model(&models.Holding{}).
		Joins("JOIN accounts ON accounts.id = holdings.account_id").
		Where("accounts.user_id = ? AND holdings.symbol = ?", userID, symbol).
		Count(&n).Error
	if err != nil {
		return false, mapStoreError(ctx, err)
	}
	return n > 0, nil
}

// quote resolves the symbol's price within PriceTimeout.
func (s *tradingService) quote(ctx context.Context, symbol string) (pricing.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.PriceTimeout)
	defer cancel()

	q, err := s.prices.Quote(ctx, symbol)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownSymbol) {
			return pricing.Quote{}, apperrors.WithMessage(apperrors.ErrUnknownSymbol, fmt.Sprintf("Unknown instrument symbol %q", symbol))
		}
		return pricing.Quote{}, apperrors.Wrap(apperrors.ErrUpstreamUnavailable, err)
	}
	return q, nil
}

// checkDeviation rejects orders priced too far from the last traded price.
func (s *tradingService) checkDeviation(order ledger.Order, quote pricing.Quote) error {
	limit := s.opts.MaxPriceDeviationPct
	if !limit.IsPositive() || !quote.Price.IsPositive() {
		return nil
	}
	pct := order.Price.Sub(quote.Price).Abs().Div(quote.Price).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(limit) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("price %s is more than %s%% away from last traded price %s", order.Price, limit, quote.Price))
	}
	return nil
}

// publish emits the trade event. The trade is already committed, so failures
// are logged and dropped.
func (s *tradingService) publish(ctx context.Context, userID string, exec *execution) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	t := exec.Trade
	evt := events.TradeExecuted{
		Type:           events.TypeTradeExecuted,
		OrderRef:       t.OrderRef,
		TradeID:        t.ID,
		AccountID:      t.AccountID,
		UserID:         userID,
		Symbol:         t.Symbol,
		Side:           string(t.Side),
		Quantity:       t.Quantity,
		Price:          t.Price,
		AvgPriceAtSale: t.AvgPriceAtSale,
		Balance:        exec.Fill.Balance,
		ExecutedAt:     t.ExecutedAt,
	}
	if err := s.publisher.PublishTrade(ctx, evt); err != nil {
		logger.Get().Warnw("failed to publish trade event", "error", err, "order_ref", t.OrderRef)
	}
}

// GetAccount returns the user's balance and open holdings.
func (s *tradingService) GetAccount(ctx context.Context, userID string) (*AccountSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	account, err := loadAccount(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, mapStoreError(ctx, err)
	}
	return &AccountSnapshot{
		AccountID:      account.ID,
		Currency:       account.Currency,
		Balance:        account.Balance,
		OpeningBalance: account.OpeningBalance,
		Holdings:       bookOf(account).Sorted(),
	}, nil
}

// normalizeOrder canonicalizes the symbol and checks the numeric inputs
// before any lookup or lock is taken.
func normalizeOrder(order ledger.Order) (ledger.Order, error) {
	symbol, ok := models.NormalizeSymbol(order.Symbol)
	if !ok {
		return order, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid symbol %q", order.Symbol))
	}
	order.Symbol = symbol

	if order.Quantity <= 0 {
		return order, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be a positive integer")
	}
	if !order.Price.IsPositive() {
		return order, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be positive")
	}
	if !order.Price.Equal(order.Price.Round(ledger.PriceScale)) {
		return order, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must have at most 2 decimal places")
	}
	return order, nil
}
