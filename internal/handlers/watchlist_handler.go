package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrade/internal/services"
)

// WatchlistHandler handles the caller's watchlist.
type WatchlistHandler struct {
	watchlistService services.WatchlistServicer
	auditService     services.AuditServicer
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistService services.WatchlistServicer, auditService services.AuditServicer) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService, auditService: auditService}
}

// WatchlistRequest represents the request payload for following a symbol.
type WatchlistRequest struct {
	Symbol string `json:"symbol" binding:"required,symbol"`
}

// GetWatchlist handles listing followed symbols.
// @Summary     Get watchlist
// @Tags        watchlist
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.WatchlistItem "Watchlist"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /watchlist [get]
func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items, err := h.watchlistService.GetWatchlist(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"watchlist": items})
}

// AddSymbol handles following a symbol.
// @Summary     Add to watchlist
// @Description Follow an instrument; adding a symbol twice is a no-op
// @Tags        watchlist
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WatchlistRequest true "Symbol"
// @Success     200 {array}  models.WatchlistItem "Watchlist"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Router      /watchlist [post]
func (h *WatchlistHandler) AddSymbol(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	items, err := h.watchlistService.AddSymbol(c.Request.Context(), userID, req.Symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditWatchlistAdd, "watchlist", req.Symbol, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"watchlist": items})
}

// RemoveSymbol handles unfollowing a symbol.
// @Summary     Remove from watchlist
// @Tags        watchlist
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Symbol"
// @Success     200 {array}  models.WatchlistItem "Watchlist"
// @Failure     400 {object} ErrorResponse "Invalid symbol"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /watchlist/{symbol} [delete]
func (h *WatchlistHandler) RemoveSymbol(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	symbol := c.Param("symbol")
	items, err := h.watchlistService.RemoveSymbol(c.Request.Context(), userID, symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditWatchlistRemove, "watchlist", symbol, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"watchlist": items})
}
