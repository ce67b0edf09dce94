package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/ledger"
	"papertrade/internal/models"
	"papertrade/internal/services"
)

type mockTradingService struct {
	executeBuyFn  func(userID, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error)
	executeSellFn func(userID, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error)
	getAccountFn  func(userID string) (*services.AccountSnapshot, error)
}

var _ services.TradingServicer = (*mockTradingService)(nil)

func (m *mockTradingService) ExecuteBuy(_ context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error) {
	if m.executeBuyFn != nil {
		return m.executeBuyFn(userID, symbol, quantity, price)
	}
	return nil, nil
}

func (m *mockTradingService) ExecuteSell(_ context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error) {
	if m.executeSellFn != nil {
		return m.executeSellFn(userID, symbol, quantity, price)
	}
	return nil, nil
}

func (m *mockTradingService) GetAccount(_ context.Context, userID string) (*services.AccountSnapshot, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(userID)
	}
	return &services.AccountSnapshot{}, nil
}

type mockHistoryService struct {
	getTradesFn func(userID string, filter services.TradeFilter) ([]services.TradeView, error)
}

func (m *mockHistoryService) GetTrades(_ context.Context, userID string, filter services.TradeFilter) ([]services.TradeView, error) {
	if m.getTradesFn != nil {
		return m.getTradesFn(userID, filter)
	}
	return []services.TradeView{}, nil
}

func setupTradeRouter(handler *TradeHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.POST("/trades/buy", handler.Buy)
	r.POST("/trades/sell", handler.Sell)
	r.GET("/trades", handler.GetTrades)
	r.GET("/account", handler.GetAccount)
	return r
}

func filledResult(side models.TradeSide, symbol string, qty int64, price string) *services.TradeResult {
	p := decimal.RequireFromString(price)
	return &services.TradeResult{
		Balance: decimal.RequireFromString("84000"),
		Holdings: []ledger.Position{
			{Symbol: symbol, Quantity: qty, AvgPrice: p},
		},
		Trade: &models.Trade{OrderRef: "01J9ZK3S7T2ABCDEFGHJKMNPQR", Symbol: symbol, Side: side, Quantity: qty, Price: p},
	}
}

func TestTradeHandler_Buy(t *testing.T) {
	t.Run("returns 200 with balance and holdings", func(t *testing.T) {
		var gotSymbol string
		var gotQty int64
		var gotPrice decimal.Decimal
		svc := &mockTradingService{
			executeBuyFn: func(userID, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error) {
				if userID != testUserID {
					t.Errorf("expected caller %s, got %s", testUserID, userID)
				}
				gotSymbol, gotQty, gotPrice = symbol, quantity, price
				return filledResult(models.TradeSideBuy, "TCS", quantity, price.String()), nil
			},
		}
		audit := &mockAuditService{}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, audit))

		rec := doRequest(r, "POST", "/trades/buy", `{"symbol":"tcs","quantity":10,"price":1600.00}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSymbol != "tcs" || gotQty != 10 || !gotPrice.Equal(decimal.NewFromInt(1600)) {
			t.Errorf("unexpected order passed to service: %s %d %s", gotSymbol, gotQty, gotPrice)
		}
		result := parseJSON(t, rec)
		if result["balance"] != float64(84000) {
			t.Errorf("expected balance 84000, got %v", result["balance"])
		}
		holdings := result["holdings"].([]interface{})
		if len(holdings) != 1 {
			t.Fatalf("expected 1 holding, got %d", len(holdings))
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditTradeBuy {
			t.Errorf("expected TRADE_BUY audit entry, got %+v", audit.entries)
		}
	})

	t.Run("accepts price as string", func(t *testing.T) {
		svc := &mockTradingService{
			executeBuyFn: func(_, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error) {
				if !price.Equal(decimal.RequireFromString("1600.05")) {
					t.Errorf("expected 1600.05, got %s", price)
				}
				return filledResult(models.TradeSideBuy, "TCS", quantity, price.String()), nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trades/buy", `{"symbol":"TCS","quantity":1,"price":"1600.05"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing symbol", `{"quantity":1,"price":10}`},
		{"zero quantity", `{"symbol":"TCS","quantity":0,"price":10}`},
		{"negative quantity", `{"symbol":"TCS","quantity":-5,"price":10}`},
		{"zero price", `{"symbol":"TCS","quantity":1,"price":0}`},
		{"negative price", `{"symbol":"TCS","quantity":1,"price":-1}`},
		{"malformed symbol", `{"symbol":"T C S","quantity":1,"price":10}`},
		{"fractional quantity", `{"symbol":"TCS","quantity":1.5,"price":10}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			called := false
			svc := &mockTradingService{
				executeBuyFn: func(_, _ string, _ int64, _ decimal.Decimal) (*services.TradeResult, error) {
					called = true
					return nil, nil
				},
			}
			audit := &mockAuditService{}
			r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, audit))

			rec := doRequest(r, "POST", "/trades/buy", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
			if called {
				t.Error("service should not be called for invalid input")
			}
			if len(audit.entries) != 0 {
				t.Error("rejected orders must not be audited")
			}
		})
	}

	t.Run("maps service errors", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{apperrors.ErrInsufficientFunds, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
			{apperrors.ErrUnknownSymbol, http.StatusBadRequest, "UNKNOWN_SYMBOL"},
			{apperrors.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
			{apperrors.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
			{apperrors.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
		}
		for _, tc := range cases {
			svc := &mockTradingService{
				executeBuyFn: func(_, _ string, _ int64, _ decimal.Decimal) (*services.TradeResult, error) {
					return nil, tc.err
				},
			}
			r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/trades/buy", `{"symbol":"TCS","quantity":1,"price":10}`)

			if rec.Code != tc.status {
				t.Errorf("%s: expected %d, got %d", tc.code, tc.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tc.code)
		}
	})

	t.Run("upstream failure advertises retry", func(t *testing.T) {
		svc := &mockTradingService{
			executeBuyFn: func(_, _ string, _ int64, _ decimal.Decimal) (*services.TradeResult, error) {
				return nil, apperrors.ErrUpstreamUnavailable
			},
		}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trades/buy", `{"symbol":"TCS","quantity":1,"price":10}`)

		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	})
}

func TestTradeHandler_Sell(t *testing.T) {
	t.Run("returns 200 and audits the sale", func(t *testing.T) {
		svc := &mockTradingService{
			executeSellFn: func(_, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error) {
				res := filledResult(models.TradeSideSell, "TCS", 5, "1600.05")
				res.Trade.Quantity = quantity
				res.Trade.Price = price
				return res, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, audit))

		rec := doRequest(r, "POST", "/trades/sell", `{"symbol":"TCS","quantity":5,"price":1950}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditTradeSell {
			t.Errorf("expected TRADE_SELL audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 on no holding", func(t *testing.T) {
		svc := &mockTradingService{
			executeSellFn: func(_, _ string, _ int64, _ decimal.Decimal) (*services.TradeResult, error) {
				return nil, apperrors.ErrNoHolding
			},
		}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trades/sell", `{"symbol":"INFY","quantity":1,"price":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NO_HOLDING")
	})
}

func TestTradeHandler_GetTrades(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var got services.TradeFilter
		hist := &mockHistoryService{
			getTradesFn: func(userID string, filter services.TradeFilter) ([]services.TradeView, error) {
				got = filter
				return []services.TradeView{{Trade: models.Trade{Symbol: "TCS", Side: models.TradeSideSell}}}, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(&mockTradingService{}, hist, &mockAuditService{}))

		rec := doRequest(r, "GET", "/trades?symbol=TCS&side=sell&from=2024-01-01&to=2024-01-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Symbol != "TCS" || got.Side != "sell" || got.From != "2024-01-01" || got.To != "2024-01-31" {
			t.Errorf("unexpected filter: %+v", got)
		}
		trades := parseJSON(t, rec)["trades"].([]interface{})
		if len(trades) != 1 {
			t.Errorf("expected 1 trade, got %d", len(trades))
		}
	})

	t.Run("returns empty list", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradingService{}, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/trades", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if trades, ok := parseJSON(t, rec)["trades"].([]interface{}); !ok || len(trades) != 0 {
			t.Errorf("expected empty trades array, got %v", rec.Body.String())
		}
	})

	t.Run("returns 400 on bad side", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradingService{}, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/trades?side=HOLD", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 from service filter errors", func(t *testing.T) {
		hist := &mockHistoryService{
			getTradesFn: func(string, services.TradeFilter) ([]services.TradeView, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must be before to")
			},
		}
		r := setupTradeRouter(NewTradeHandler(&mockTradingService{}, hist, &mockAuditService{}))

		rec := doRequest(r, "GET", "/trades?from=2024-02-01&to=2024-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTradeHandler_GetAccount(t *testing.T) {
	t.Run("returns snapshot", func(t *testing.T) {
		svc := &mockTradingService{
			getAccountFn: func(string) (*services.AccountSnapshot, error) {
				return &services.AccountSnapshot{Currency: "INR", Balance: decimal.NewFromInt(100000), Holdings: []ledger.Position{}}, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/account", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["balance"] != float64(100000) {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("returns 404 when no account", func(t *testing.T) {
		svc := &mockTradingService{
			getAccountFn: func(string) (*services.AccountSnapshot, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupTradeRouter(NewTradeHandler(svc, &mockHistoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/account", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
