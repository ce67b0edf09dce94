package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/ids"
	"papertrade/internal/ledger"
	"papertrade/internal/models"
)

// errStaleAccount means the account version moved between load and write.
// The transaction is rolled back and the order may be retried.
var errStaleAccount = errors.New("account version changed during update")

// execution is the committed outcome of one order.
type execution struct {
	Account *models.Account
	Book    *ledger.Book
	Fill    ledger.Fill
	Trade   *models.Trade
}

// ledgerWriter applies an order to an account and appends the trade as one
// atomic unit.
type ledgerWriter interface {
	apply(ctx context.Context, userID string, order ledger.Order) (*execution, error)
}

// ledgerStore persists accounts, holdings and the trade log with gorm.
type ledgerStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func newLedgerStore(db *gorm.DB, timeout time.Duration) *ledgerStore {
	return &ledgerStore{db: db, timeout: timeout}
}

// apply runs load, validate, mutate and append inside one transaction. Domain
// rejections come back as AppErrors, a lost version race as errStaleAccount.
func (st *ledgerStore) apply(ctx context.Context, userID string, order ledger.Order) (*execution, error) {
	ctx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	var out *execution
	err := st.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := loadAccount(tx, userID)
		if err != nil {
			return err
		}

		book := bookOf(account)
		fill, err := book.Apply(order)
		if err != nil {
			return ledgerRejection(err)
		}

		if err := saveBalance(tx, account, book.Balance); err != nil {
			return err
		}
		if err := writePosition(tx, account, fill); err != nil {
			return err
		}

		trade := &models.Trade{
			AccountID:      account.ID,
			OrderRef:       ids.NewOrderRef(),
			Symbol:         order.Symbol,
			Side:           models.TradeSide(order.Side),
			Quantity:       order.Quantity,
			Price:          order.Price,
			AvgPriceAtSale: fill.AvgPriceAtSale,
			ExecutedAt:     time.Now().UTC(),
		}
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("append trade: %w", err)
		}

		out = &execution{Account: account, Book: book, Fill: fill, Trade: trade}
		return nil
	})
	if err != nil {
		if errors.Is(err, errStaleAccount) {
			return nil, err
		}
		return nil, mapStoreError(ctx, err)
	}
	return out, nil
}

// loadAccount fetches the user's account with its holdings.
func loadAccount(db *gorm.DB, userID string) (*models.Account, error) {
	var account models.Account
	err := db.Preload("Holdings").Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &account, nil
}

// loadTrades returns an account's trade log in execution order.
func loadTrades(db *gorm.DB, accountID string) ([]models.Trade, error) {
	var trades []models.Trade
	err := db.Where("account_id = ?", accountID).
		Order("executed_at ASC").
		Order("order_ref ASC").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return trades, nil
}

// saveBalance writes the new balance only if nobody else has bumped the
// version since account was loaded.
func saveBalance(tx *gorm.DB, account *models.Account, balance decimal.Decimal) error {
	res := tx.Model(&models.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"balance": balance,
			"version": account.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleAccount
	}
	account.Version++
	return nil
}

// writePosition mirrors a fill onto the holdings table.
func writePosition(tx *gorm.DB, account *models.Account, fill ledger.Fill) error {
	var existing *models.Holding
	for i := range account.Holdings {
		if account.Holdings[i].Symbol == fill.Order.Symbol {
			existing = &account.Holdings[i]
			break
		}
	}

	switch {
	case fill.Closed:
		if err := tx.Where("id = ?", existing.ID).Delete(&models.Holding{}).Error; err != nil {
			return fmt.Errorf("delete holding: %w", err)
		}
	case existing != nil:
		err := tx.Model(&models.Holding{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
			"quantity":  fill.Position.Quantity,
			"avg_price": fill.Position.AvgPrice,
		}).Error
		if err != nil {
			return fmt.Errorf("update holding: %w", err)
		}
	default:
		h := &models.Holding{
			AccountID: account.ID,
			Symbol:    fill.Position.Symbol,
			Quantity:  fill.Position.Quantity,
			AvgPrice:  fill.Position.AvgPrice,
		}
		if err := tx.Create(h).Error; err != nil {
			return fmt.Errorf("create holding: %w", err)
		}
	}
	return nil
}

// bookOf builds the in-memory book for a stored account.
func bookOf(account *models.Account) *ledger.Book {
	book := ledger.NewBook(account.Balance)
	for _, h := range account.Holdings {
		book.Positions[h.Symbol] = ledger.Position{Symbol: h.Symbol, Quantity: h.Quantity, AvgPrice: h.AvgPrice}
	}
	return book
}

// ordersOf converts trade-log entries back into the orders that produced them.
func ordersOf(trades []models.Trade) []ledger.Order {
	orders := make([]ledger.Order, len(trades))
	for i, t := range trades {
		orders[i] = ledger.Order{Side: ledger.Side(t.Side), Symbol: t.Symbol, Quantity: t.Quantity, Price: t.Price}
	}
	return orders
}

// ledgerRejection maps ledger rule violations to client-facing errors.
func ledgerRejection(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return apperrors.ErrInsufficientFunds
	case errors.Is(err, ledger.ErrNoHolding):
		return apperrors.ErrNoHolding
	case errors.Is(err, ledger.ErrInsufficientQuantity):
		return apperrors.ErrInsufficientQuantity
	case errors.Is(err, ledger.ErrInvalidOrder):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity and price must be positive")
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// mapStoreError turns a storage failure into an AppError. Expired deadlines
// are retryable; AppErrors pass through untouched.
func mapStoreError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return apperrors.Wrap(apperrors.ErrUpstreamUnavailable, err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
