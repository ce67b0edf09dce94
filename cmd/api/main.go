package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/events"
	"papertrade/internal/locking"
	"papertrade/internal/logger"
	"papertrade/internal/pricing"
	"papertrade/internal/server"
	"papertrade/internal/services"
	"papertrade/internal/validator"
)

// @title           Papertrade API
// @version         1.0
// @description     Simulated stock trading with a consistent portfolio ledger.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig := database.NewConfig(appConfig)
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(database.DefaultMigrationsDir); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	db := dbManager.DB()

	locker, closeLocker, err := newLocker(appConfig)
	if err != nil {
		return err
	}
	defer closeLocker()

	var publisher events.Publisher = events.NopPublisher{}
	if appConfig.EventsEnabled() {
		publisher = events.NewKafkaPublisher(appConfig.KafkaBrokers, appConfig.KafkaTopic)
		log.Infow("publishing trade events", "brokers", appConfig.KafkaBrokers, "topic", appConfig.KafkaTopic)
	}
	defer publisher.Close()

	prices, err := pricing.NewCachedSource(pricing.NewCatalogSource(db), appConfig.PriceCacheMaxCost, appConfig.PriceCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create price cache: %w", err)
	}
	defer prices.Close()

	opts := services.TradingOptions{
		PriceTimeout:         appConfig.PriceTimeout,
		StoreTimeout:         appConfig.StoreTimeout,
		LockTimeout:          appConfig.LockTimeout,
		RetryLimit:           appConfig.TradeRetryLimit,
		MaxPriceDeviationPct: decimal.NewFromFloat(appConfig.MaxPriceDeviationPct),
	}

	validator.Register()

	router := server.NewRouter(server.Dependencies{
		Users:       services.NewUserService(db, appConfig.OpeningBalance, appConfig.Currency),
		Trading:     services.NewTradingService(db, prices, locker, publisher, opts),
		Portfolio:   services.NewPortfolioService(db, prices, opts),
		History:     services.NewHistoryService(db, opts),
		Instruments: services.NewInstrumentService(db, prices),
		Watchlist:   services.NewWatchlistService(db),
		Audit:       services.NewAuditService(db),
		AdminAPIKey: appConfig.AdminAPIKey,
		CORSOrigin:  appConfig.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Papertrade server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLocker picks the per-account lock backend. The redis backend serializes
// orders across API instances sharing one database.
func newLocker(cfg *config.Config) (locking.Locker, func(), error) {
	if cfg.LockBackend != config.LockBackendRedis {
		return locking.NewLocalLocker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Get().Infow("using redis account locks", "addr", cfg.RedisAddr)
	return locking.NewRedisLocker(rdb, cfg.LockTTL), func() { _ = rdb.Close() }, nil
}
