package services

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/locking"
	"papertrade/internal/models"
	"papertrade/internal/pricing"
	"papertrade/internal/testutil"
)

func TestGetPortfolio(t *testing.T) {
	t.Run("values holdings at the last traded price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateTestInstrument(t, db, "TCS", models.InstrumentKindStock, "130")
		testutil.CreateTestInstrument(t, db, "INFY", models.InstrumentKindStock, "1400")
		user, account := testutil.CreateTestUserWithAccount(t, db, "10000")
		testutil.CreateTestHolding(t, db, account.ID, "TCS", 15, "106.67")
		testutil.CreateTestHolding(t, db, account.ID, "INFY", 2, "1500")
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		p, err := svc.GetPortfolio(context.Background(), user.ID, PortfolioSourceSnapshot)
		testutil.AssertNoError(t, err)

		if len(p.Holdings) != 2 || p.Holdings[0].Symbol != "INFY" {
			t.Fatalf("expected INFY then TCS, got %+v", p.Holdings)
		}
		infy, tcs := p.Holdings[0], p.Holdings[1]

		testutil.AssertDecimal(t, "tcs invested", tcs.Invested, "1600.05")
		testutil.AssertDecimal(t, "tcs current", tcs.CurrentValue, "1950")
		testutil.AssertDecimal(t, "tcs pnl", tcs.PnL, "349.95")
		testutil.AssertDecimal(t, "tcs pnl pct", tcs.PnLPercent, "21.87")

		testutil.AssertDecimal(t, "infy pnl", infy.PnL, "-200")
		testutil.AssertDecimal(t, "infy pnl pct", infy.PnLPercent, "-6.67")

		testutil.AssertDecimal(t, "total invested", p.TotalInvested, "4600.05")
		testutil.AssertDecimal(t, "total current", p.TotalCurrent, "4750")
		testutil.AssertDecimal(t, "overall pnl", p.OverallPnL, "149.95")
		testutil.AssertDecimal(t, "balance", p.Balance, "10000")

		if p.Source != PortfolioSourceSnapshot || p.Currency != "INR" {
			t.Errorf("unexpected metadata: %s %s", p.Source, p.Currency)
		}
		if p.Display.Balance == "" || p.Display.OverallPnL == "" {
			t.Errorf("expected display strings, got %+v", p.Display)
		}
	})

	t.Run("empty account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user, _ := testutil.CreateTestUserWithAccount(t, db, "500")
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		p, err := svc.GetPortfolio(context.Background(), user.ID, "")
		testutil.AssertNoError(t, err)
		if len(p.Holdings) != 0 {
			t.Errorf("expected no holdings, got %d", len(p.Holdings))
		}
		testutil.AssertDecimal(t, "overall pnl", p.OverallPnL, "0")
	})

	t.Run("delisted symbol is valued at cost", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user, account := testutil.CreateTestUserWithAccount(t, db, "500")
		testutil.CreateTestHolding(t, db, account.ID, "GONE", 3, "10")
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		p, err := svc.GetPortfolio(context.Background(), user.ID, PortfolioSourceSnapshot)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "ltp", p.Holdings[0].LTP, "10")
		testutil.AssertDecimal(t, "pnl", p.Holdings[0].PnL, "0")
	})

	t.Run("price timeout", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user, account := testutil.CreateTestUserWithAccount(t, db, "500")
		testutil.CreateTestHolding(t, db, account.ID, "TCS", 1, "100")
		opts := DefaultTradingOptions()
		opts.PriceTimeout = 20 * time.Millisecond
		svc := NewPortfolioService(db, blockingSource{}, opts)

		_, err := svc.GetPortfolio(context.Background(), user.ID, PortfolioSourceSnapshot)
		testutil.AssertAppError(t, err, "UPSTREAM_UNAVAILABLE")
	})

	t.Run("unknown source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user, _ := testutil.CreateTestUserWithAccount(t, db, "500")
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		_, err := svc.GetPortfolio(context.Background(), user.ID, "cache")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("account not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		_, err := svc.GetPortfolio(context.Background(), "missing", PortfolioSourceSnapshot)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetPortfolio_ReplayMatchesSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	testutil.CreateTestInstrument(t, db, "TCS", models.InstrumentKindStock, "100")
	testutil.CreateTestInstrument(t, db, "HDFC", models.InstrumentKindStock, "2800")
	user, _ := testutil.CreateTestUserWithAccount(t, db, "100000")
	prices := pricing.NewCatalogSource(db)
	trading := NewTradingService(db, prices, locking.NewLocalLocker(), nil, DefaultTradingOptions())
	svc := NewPortfolioService(db, prices, DefaultTradingOptions())
	ctx := context.Background()

	steps := []struct {
		buy    bool
		symbol string
		qty    int64
		price  string
	}{
		{true, "TCS", 10, "100"},
		{true, "TCS", 5, "120"},
		{true, "HDFC", 3, "2800"},
		{false, "TCS", 7, "110"},
		{true, "TCS", 1, "99.99"},
		{false, "HDFC", 3, "2850.50"},
	}
	for _, st := range steps {
		var err error
		if st.buy {
			_, err = trading.ExecuteBuy(ctx, user.ID, st.symbol, st.qty, dec(st.price))
		} else {
			_, err = trading.ExecuteSell(ctx, user.ID, st.symbol, st.qty, dec(st.price))
		}
		testutil.AssertNoError(t, err)
	}

	snap, err := svc.GetPortfolio(ctx, user.ID, PortfolioSourceSnapshot)
	testutil.AssertNoError(t, err)
	replay, err := svc.GetPortfolio(ctx, user.ID, PortfolioSourceReplay)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "replayed balance", replay.Balance, snap.Balance.String())
	if len(snap.Holdings) != len(replay.Holdings) {
		t.Fatalf("holding count differs: snapshot %d replay %d", len(snap.Holdings), len(replay.Holdings))
	}
	for i := range snap.Holdings {
		a, b := snap.Holdings[i], replay.Holdings[i]
		if a.Symbol != b.Symbol || a.Quantity != b.Quantity || !a.AvgPrice.Equal(b.AvgPrice) {
			t.Errorf("holding %d differs: snapshot %+v replay %+v", i, a, b)
		}
	}
	if replay.Source != PortfolioSourceReplay {
		t.Errorf("expected replay source, got %s", replay.Source)
	}
}

func TestVerifyLedger(t *testing.T) {
	t.Run("consistent after trading", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateTestInstrument(t, db, "TCS", models.InstrumentKindStock, "100")
		user, _ := testutil.CreateTestUserWithAccount(t, db, "10000")
		prices := pricing.NewCatalogSource(db)
		trading := NewTradingService(db, prices, locking.NewLocalLocker(), nil, DefaultTradingOptions())
		svc := NewPortfolioService(db, prices, DefaultTradingOptions())
		ctx := context.Background()

		_, err := trading.ExecuteBuy(ctx, user.ID, "TCS", 10, dec("100"))
		testutil.AssertNoError(t, err)
		_, err = trading.ExecuteSell(ctx, user.ID, "TCS", 4, dec("105"))
		testutil.AssertNoError(t, err)

		report, err := svc.VerifyLedger(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if !report.Consistent || report.TradesChecked != 2 {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("detects a tampered holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user, account := testutil.CreateTestUserWithAccount(t, db, "10000")
		testutil.CreateTestTrade(t, db, account.ID, "TCS", models.TradeSideBuy, 10, "100", time.Now())
		testutil.AssertNoError(t, db.Model(&models.Account{}).Where("id = ?", account.ID).Update("balance", dec("9000")).Error)
		testutil.CreateTestHolding(t, db, account.ID, "TCS", 12, "100")
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		report, err := svc.VerifyLedger(context.Background(), user.ID)
		testutil.AssertAppError(t, err, "INTEGRITY_VIOLATION")
		if report == nil || report.Consistent {
			t.Fatalf("expected inconsistent report, got %+v", report)
		}
		if len(report.Discrepancies) != 1 || report.Discrepancies[0].Field != "quantity" {
			t.Errorf("unexpected discrepancies: %+v", report.Discrepancies)
		}
	})

	t.Run("unreplayable log", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user, account := testutil.CreateTestUserWithAccount(t, db, "10000")
		testutil.CreateTestTrade(t, db, account.ID, "TCS", models.TradeSideSell, 1, "100", time.Now())
		svc := NewPortfolioService(db, pricing.NewCatalogSource(db), DefaultTradingOptions())

		report, err := svc.VerifyLedger(context.Background(), user.ID)
		if !errors.Is(err, apperrors.ErrIntegrityViolation) {
			t.Fatalf("expected integrity violation, got %v", err)
		}
		if report.ReplayError == "" {
			t.Error("expected replay error in report")
		}

		_, err = svc.GetPortfolio(context.Background(), user.ID, PortfolioSourceReplay)
		testutil.AssertAppError(t, err, "INTEGRITY_VIOLATION")
	})
}
