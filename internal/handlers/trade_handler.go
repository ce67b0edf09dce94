package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"papertrade/internal/services"
)

// TradeHandler handles order execution and trade history requests.
type TradeHandler struct {
	tradingService services.TradingServicer
	historyService services.HistoryServicer
	auditService   services.AuditServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradingService services.TradingServicer, historyService services.HistoryServicer, auditService services.AuditServicer) *TradeHandler {
	return &TradeHandler{tradingService: tradingService, historyService: historyService, auditService: auditService}
}

// OrderRequest represents a market order. Price is the client's view of the
// last traded price, at most two decimal places.
type OrderRequest struct {
	Symbol   string          `json:"symbol" binding:"required,symbol"`
	Quantity int64           `json:"quantity" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price" binding:"required,gt=0"`
}

// TradeHistoryQuery holds the optional trade history filters.
type TradeHistoryQuery struct {
	Symbol string `form:"symbol" binding:"omitempty,symbol"`
	Side   string `form:"side" binding:"omitempty,trade_side"`
	From   string `form:"from"`
	To     string `form:"to"`
}

type executeFunc func(ctx context.Context, userID, symbol string, quantity int64, price decimal.Decimal) (*services.TradeResult, error)

// Buy handles a market buy order.
// @Summary     Buy
// @Description Buy quantity shares of symbol at price, debiting the account balance
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OrderRequest true "Order"
// @Success     200 {object} services.TradeResult "Balance and holdings after the fill"
// @Failure     400 {object} ErrorResponse "Invalid input, unknown symbol or insufficient funds"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     503 {object} ErrorResponse "Upstream unavailable"
// @Router      /trades/buy [post]
func (h *TradeHandler) Buy(c *gin.Context) {
	h.execute(c, h.tradingService.ExecuteBuy, services.AuditTradeBuy)
}

// Sell handles a market sell order.
// @Summary     Sell
// @Description Sell quantity shares of symbol at price, crediting the account balance
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OrderRequest true "Order"
// @Success     200 {object} services.TradeResult "Balance and holdings after the fill"
// @Failure     400 {object} ErrorResponse "Invalid input, no holding or insufficient quantity"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     503 {object} ErrorResponse "Upstream unavailable"
// @Router      /trades/sell [post]
func (h *TradeHandler) Sell(c *gin.Context) {
	h.execute(c, h.tradingService.ExecuteSell, services.AuditTradeSell)
}

func (h *TradeHandler) execute(c *gin.Context, fn executeFunc, action string) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := fn(c.Request.Context(), userID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "trade", result.Trade.OrderRef, c.ClientIP(),
		map[string]interface{}{
			"symbol":   result.Trade.Symbol,
			"quantity": result.Trade.Quantity,
			"price":    result.Trade.Price.StringFixed(2),
		})

	c.JSON(http.StatusOK, result)
}

// GetTrades handles listing the caller's trade log.
// @Summary     List trades
// @Description Trade log newest first, with realized P&L on sells
// @Tags        trades
// @Produce     json
// @Security    BearerAuth
// @Param       symbol query string false "Symbol"
// @Param       side   query string false "BUY or SELL"
// @Param       from   query string false "Inclusive start, YYYY-MM-DD or RFC 3339"
// @Param       to     query string false "Inclusive end, YYYY-MM-DD or RFC 3339"
// @Success     200 {array}  services.TradeView "Trades"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     503 {object} ErrorResponse "Upstream unavailable"
// @Router      /trades [get]
func (h *TradeHandler) GetTrades(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q TradeHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	trades, err := h.historyService.GetTrades(c.Request.Context(), userID, services.TradeFilter{
		Symbol: q.Symbol,
		Side:   q.Side,
		From:   q.From,
		To:     q.To,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// GetAccount handles reading the caller's balance and holdings.
// @Summary     Get account
// @Description Cash balance and open holdings
// @Tags        account
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AccountSnapshot "Account"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /account [get]
func (h *TradeHandler) GetAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.tradingService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
