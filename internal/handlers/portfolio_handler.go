package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/services"
)

// PortfolioHandler handles portfolio valuation and ledger verification.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer, auditService services.AuditServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, auditService: auditService}
}

// GetPortfolio handles the valued portfolio view.
// @Summary     Get portfolio
// @Description Holdings valued at the last traded price with invested, current and P&L totals
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       source query string false "snapshot (default) or replay"
// @Success     200 {object} services.Portfolio "Portfolio"
// @Failure     400 {object} ErrorResponse "Invalid source"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Trade log cannot be replayed"
// @Failure     503 {object} ErrorResponse "Upstream unavailable"
// @Router      /portfolio [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	source := services.PortfolioSource(c.DefaultQuery("source", string(services.PortfolioSourceSnapshot)))
	portfolio, err := h.portfolioService.GetPortfolio(c.Request.Context(), userID, source)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// VerifyLedger handles comparing stored holdings against a trade log replay.
// @Summary     Verify ledger
// @Description Replays the trade log and reports any difference from the stored holdings and balance
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.LedgerReport "Ledger is consistent"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Holdings do not match the trade log"
// @Router      /portfolio/verify [get]
func (h *PortfolioHandler) VerifyLedger(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.portfolioService.VerifyLedger(c.Request.Context(), userID)
	if report != nil && !report.Consistent {
		h.auditService.Log(userID, services.AuditLedgerVerifyFailed, "account", report.AccountID, c.ClientIP(),
			map[string]interface{}{"discrepancies": len(report.Discrepancies), "replay_error": report.ReplayError})

		appErr := apperrors.ErrIntegrityViolation
		c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
			"error":  gin.H{"code": appErr.Code, "message": appErr.Message},
			"report": report,
		})
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
