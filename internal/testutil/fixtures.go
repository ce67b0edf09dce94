package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"papertrade/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates the trading account for userID holding balance in cash.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Balance:        Dec(balance),
		OpeningBalance: Dec(balance),
		Currency:       "INR",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestUserWithAccount creates a user and their trading account.
func CreateTestUserWithAccount(t *testing.T, db *gorm.DB, balance string) (*models.User, *models.Account) {
	t.Helper()
	user := CreateTestUser(t, db)
	return user, CreateTestAccount(t, db, user.ID, balance)
}

// CreateTestInstrument creates a catalog entry with the given price.
func CreateTestInstrument(t *testing.T, db *gorm.DB, symbol string, kind models.InstrumentKind, price string) *models.Instrument {
	t.Helper()

	inst := &models.Instrument{
		Symbol: symbol,
		Name:   fmt.Sprintf("Test Instrument %d", nextID()),
		Kind:   kind,
		Price:  Dec(price),
	}
	if err := db.Create(inst).Error; err != nil {
		t.Fatalf("failed to create test instrument: %v", err)
	}
	return inst
}

// CreateTestHolding writes a holding row directly, bypassing the trade log.
func CreateTestHolding(t *testing.T, db *gorm.DB, accountID, symbol string, quantity int64, avgPrice string) *models.Holding {
	t.Helper()

	h := &models.Holding{
		AccountID: accountID,
		Symbol:    symbol,
		Quantity:  quantity,
		AvgPrice:  Dec(avgPrice),
	}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return h
}

// CreateTestTrade writes a trade-log entry directly with the given execution time.
func CreateTestTrade(t *testing.T, db *gorm.DB, accountID, symbol string, side models.TradeSide, quantity int64, price string, executedAt time.Time) *models.Trade {
	t.Helper()

	tr := &models.Trade{
		AccountID:  accountID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      Dec(price),
		ExecutedAt: executedAt.UTC(),
	}
	if err := db.Create(tr).Error; err != nil {
		t.Fatalf("failed to create test trade: %v", err)
	}
	return tr
}
