package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"papertrade/internal/models"
	"papertrade/internal/pagination"
	"papertrade/internal/services"
)

// InstrumentHandler serves the public instrument catalog and its admin operations.
type InstrumentHandler struct {
	instrumentService services.InstrumentServicer
	auditService      services.AuditServicer
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(instrumentService services.InstrumentServicer, auditService services.AuditServicer) *InstrumentHandler {
	return &InstrumentHandler{instrumentService: instrumentService, auditService: auditService}
}

// SeedQuery selects which part of the catalog to seed. Empty seeds everything.
type SeedQuery struct {
	Kind string `form:"kind" binding:"omitempty,instrument_kind"`
}

// UpdateInstrumentPriceRequest represents the request payload for setting a
// last traded price.
type UpdateInstrumentPriceRequest struct {
	Price         decimal.Decimal `json:"price" binding:"required,gt=0"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// List returns a handler listing instruments of kind.
// @Summary     List instruments
// @Description Paginated mock instruments with last traded price and daily change
// @Tags        instruments
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Instrument] "Paginated instruments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks [get]
// @Router      /etfs [get]
// @Router      /mutualfunds [get]
func (h *InstrumentHandler) List(kind models.InstrumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var page pagination.PageRequest
		if err := c.ShouldBindQuery(&page); err != nil {
			respondWithError(c, invalidInput(err))
			return
		}

		result, err := h.instrumentService.ListInstruments(c.Request.Context(), kind, page)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// Get returns a handler for a single instrument of kind.
// @Summary     Get instrument
// @Description One instrument by symbol
// @Tags        instruments
// @Produce     json
// @Param       symbol path string true "Symbol"
// @Success     200 {object} models.Instrument "Instrument"
// @Failure     400 {object} ErrorResponse "Invalid symbol"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Router      /stocks/{symbol} [get]
// @Router      /etfs/{symbol} [get]
// @Router      /mutualfunds/{symbol} [get]
func (h *InstrumentHandler) Get(kind models.InstrumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		inst, err := h.instrumentService.GetInstrument(c.Request.Context(), kind, c.Param("symbol"))
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"instrument": inst})
	}
}

// SeedInstruments handles loading the bundled catalog.
// @Summary     Seed instruments
// @Description Upsert the bundled mock catalog, optionally one kind only
// @Tags        admin
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Param       kind      query  string false "stock, etf or mutual_fund"
// @Success     200 {object} map[string]int "Number of instruments written"
// @Failure     400 {object} ErrorResponse "Invalid kind"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin not configured"
// @Router      /admin/instruments/seed [post]
func (h *InstrumentHandler) SeedInstruments(c *gin.Context) {
	var q SeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	count, err := h.instrumentService.SeedInstruments(c.Request.Context(), models.InstrumentKind(q.Kind))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", services.AuditInstrumentSeed, "instrument", q.Kind, c.ClientIP(),
		map[string]interface{}{"count": count})

	c.JSON(http.StatusOK, gin.H{"seeded": count})
}

// UpdateInstrumentPrice handles setting an instrument's last traded price.
// @Summary     Update instrument price
// @Description Set the last traded price and daily change of an instrument
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string                       true "Admin API key"
// @Param       symbol    path   string                       true "Symbol"
// @Param       request   body   UpdateInstrumentPriceRequest true "New price"
// @Success     200 {object} models.Instrument "Updated instrument"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Router      /admin/instruments/{symbol}/price [put]
func (h *InstrumentHandler) UpdateInstrumentPrice(c *gin.Context) {
	var req UpdateInstrumentPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	inst, err := h.instrumentService.UpdatePrice(c.Request.Context(), c.Param("symbol"), req.Price, req.ChangePercent)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", services.AuditInstrumentPriceUpdate, "instrument", inst.Symbol, c.ClientIP(),
		map[string]interface{}{"price": req.Price.String(), "change_percent": req.ChangePercent.String()})

	c.JSON(http.StatusOK, gin.H{"instrument": inst})
}
