// Package server assembles the HTTP API from the service layer.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "papertrade/internal/docs" // registers swagger docs
	"papertrade/internal/handlers"
	"papertrade/internal/middleware"
	"papertrade/internal/models"
	"papertrade/internal/services"
)

// Dependencies are the services and settings the router is built from.
type Dependencies struct {
	Users       services.UserServicer
	Trading     services.TradingServicer
	Portfolio   services.PortfolioServicer
	History     services.HistoryServicer
	Instruments services.InstrumentServicer
	Watchlist   services.WatchlistServicer
	Audit       services.AuditServicer

	AdminAPIKey string
	CORSOrigin  string
}

// NewRouter returns the gin engine serving /api/health, /swagger and /api/v1.
func NewRouter(deps Dependencies) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Audit)
	tradeHandler := handlers.NewTradeHandler(deps.Trading, deps.History, deps.Audit)
	portfolioHandler := handlers.NewPortfolioHandler(deps.Portfolio, deps.Audit)
	instrumentHandler := handlers.NewInstrumentHandler(deps.Instruments, deps.Audit)
	watchlistHandler := handlers.NewWatchlistHandler(deps.Watchlist, deps.Audit)

	origin := deps.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.CORS(origin))
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	catalogs := []struct {
		path string
		kind models.InstrumentKind
	}{
		{"/stocks", models.InstrumentKindStock},
		{"/etfs", models.InstrumentKindETF},
		{"/mutualfunds", models.InstrumentKindMutualFund},
	}
	for _, cat := range catalogs {
		v1.GET(cat.path, instrumentHandler.List(cat.kind))
		v1.GET(cat.path+"/:symbol", instrumentHandler.Get(cat.kind))
	}

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(deps.AdminAPIKey))
	admin.POST("/instruments/seed", instrumentHandler.SeedInstruments)
	admin.PUT("/instruments/:symbol/price", instrumentHandler.UpdateInstrumentPrice)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/account", tradeHandler.GetAccount)

	trades := protected.Group("/trades")
	trades.POST("/buy", tradeHandler.Buy)
	trades.POST("/sell", tradeHandler.Sell)
	trades.GET("", tradeHandler.GetTrades)
	trades.GET("/history", tradeHandler.GetTrades)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("", portfolioHandler.GetPortfolio)
	portfolio.GET("/verify", portfolioHandler.VerifyLedger)

	watchlist := protected.Group("/watchlist")
	watchlist.GET("", watchlistHandler.GetWatchlist)
	watchlist.POST("", watchlistHandler.AddSymbol)
	watchlist.DELETE("/:symbol", watchlistHandler.RemoveSymbol)

	return router
}
