package services

import (
	"context"
	"testing"
	"time"

	"papertrade/internal/locking"
	"papertrade/internal/models"
	"papertrade/internal/pricing"
	"papertrade/internal/testutil"
)

func TestGetTrades(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, time.March, d, h, 0, 0, 0, time.UTC) }

	setup := func(t *testing.T) (HistoryServicer, *models.User, func()) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		user, account := testutil.CreateTestUserWithAccount(t, db, "10000")
		testutil.CreateTestTrade(t, db, account.ID, "TCS", models.TradeSideBuy, 10, "100", day(1, 10))
		testutil.CreateTestTrade(t, db, account.ID, "INFY", models.TradeSideBuy, 2, "1500", day(2, 10))
		testutil.CreateTestTrade(t, db, account.ID, "TCS", models.TradeSideSell, 4, "110", day(3, 23))
		testutil.CreateTestTrade(t, db, account.ID, "INFY", models.TradeSideSell, 1, "1400", day(5, 9))
		testutil.CreateTestHolding(t, db, account.ID, "TCS", 6, "100")
		testutil.CreateTestHolding(t, db, account.ID, "INFY", 1, "1500")

		_, otherAccount := testutil.CreateTestUserWithAccount(t, db, "10000")
		testutil.CreateTestTrade(t, db, otherAccount.ID, "TCS", models.TradeSideBuy, 1, "100", day(4, 10))

		return NewHistoryService(db, DefaultTradingOptions()), user, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("newest first and scoped to the caller", func(t *testing.T) {
		svc, user, done := setup(t)
		defer done()

		views, err := svc.GetTrades(context.Background(), user.ID, TradeFilter{})
		testutil.AssertNoError(t, err)

		if len(views) != 4 {
			t.Fatalf("expected 4 trades, got %d", len(views))
		}
		for i := 1; i < len(views); i++ {
			if views[i].ExecutedAt.After(views[i-1].ExecutedAt) {
				t.Errorf("trade %d is newer than trade %d", i, i-1)
			}
		}
		if views[0].Symbol != "INFY" || views[0].Side != models.TradeSideSell {
			t.Errorf("unexpected newest trade: %+v", views[0].Trade)
		}
	})

	t.Run("filters by symbol and side", func(t *testing.T) {
		svc, user, done := setup(t)
		defer done()

		views, err := svc.GetTrades(context.Background(), user.ID, TradeFilter{Symbol: "tcs", Side: "sell"})
		testutil.AssertNoError(t, err)

		if len(views) != 1 || views[0].Symbol != "TCS" || views[0].Side != models.TradeSideSell {
			t.Fatalf("unexpected result: %+v", views)
		}
	})

	t.Run("date-only to covers the whole day", func(t *testing.T) {
		svc, user, done := setup(t)
		defer done()

		views, err := svc.GetTrades(context.Background(), user.ID, TradeFilter{From: "2024-03-02", To: "2024-03-03"})
		testutil.AssertNoError(t, err)

		if len(views) != 2 {
			t.Fatalf("expected 2 trades, got %d", len(views))
		}
	})

	t.Run("rfc3339 bounds", func(t *testing.T) {
		svc, user, done := setup(t)
		defer done()

		views, err := svc.GetTrades(context.Background(), user.ID, TradeFilter{From: "2024-03-03T00:00:00Z"})
		testutil.AssertNoError(t, err)
		if len(views) != 2 {
			t.Fatalf("expected 2 trades, got %d", len(views))
		}
	})

	t.Run("legacy sells use the current average", func(t *testing.T) {
		svc, user, done := setup(t)
		defer done()

		views, err := svc.GetTrades(context.Background(), user.ID, TradeFilter{Side: "SELL"})
		testutil.AssertNoError(t, err)

		for _, v := range views {
			if v.RealizedPnL == nil {
				t.Fatalf("expected realized pnl on %s sell", v.Symbol)
			}
			if !v.AvgPriceApproximate {
				t.Errorf("%s sell should be marked approximate", v.Symbol)
			}
			if v.AvgPriceAtSale == nil {
				t.Fatalf("expected the current average on %s sell", v.Symbol)
			}
		}
		testutil.AssertDecimal(t, "infy avg", *views[0].AvgPriceAtSale, "1500")
		testutil.AssertDecimal(t, "tcs avg", *views[1].AvgPriceAtSale, "100")
		testutil.AssertDecimal(t, "infy pnl", *views[0].RealizedPnL, "-100")
		testutil.AssertDecimal(t, "tcs pnl", *views[1].RealizedPnL, "40")
	})

	t.Run("invalid filters", func(t *testing.T) {
		svc, user, done := setup(t)
		defer done()

		cases := map[string]TradeFilter{
			"bad side":      {Side: "HOLD"},
			"bad symbol":    {Symbol: "TC$"},
			"bad from":      {From: "yesterday"},
			"bad to":        {To: "03/01/2024"},
			"from after to": {From: "2024-03-05", To: "2024-03-01"},
		}
		for name, f := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := svc.GetTrades(context.Background(), user.ID, f)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}
	})

	t.Run("account not found", func(t *testing.T) {
		svc, _, done := setup(t)
		defer done()

		_, err := svc.GetTrades(context.Background(), "missing", TradeFilter{})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetTrades_RecordedAverageIsExact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	testutil.CreateTestInstrument(t, db, "TCS", models.InstrumentKindStock, "100")
	user, _ := testutil.CreateTestUserWithAccount(t, db, "10000")
	trading := NewTradingService(db, pricing.NewCatalogSource(db), locking.NewLocalLocker(), nil, DefaultTradingOptions())
	svc := NewHistoryService(db, DefaultTradingOptions())
	ctx := context.Background()

	_, err := trading.ExecuteBuy(ctx, user.ID, "TCS", 10, dec("100"))
	testutil.AssertNoError(t, err)
	_, err = trading.ExecuteBuy(ctx, user.ID, "TCS", 5, dec("120"))
	testutil.AssertNoError(t, err)
	_, err = trading.ExecuteSell(ctx, user.ID, "TCS", 15, dec("130"))
	testutil.AssertNoError(t, err)

	views, err := svc.GetTrades(ctx, user.ID, TradeFilter{Side: "SELL"})
	testutil.AssertNoError(t, err)

	if len(views) != 1 {
		t.Fatalf("expected 1 sell, got %d", len(views))
	}
	if views[0].AvgPriceApproximate {
		t.Error("recorded average must not be flagged approximate")
	}
	testutil.AssertDecimal(t, "realized pnl", *views[0].RealizedPnL, "349.95")
}
