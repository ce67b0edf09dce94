package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Lock backends.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config holds application configuration
type Config struct {
	// Server
	Port       string `env:"PORT" envDefault:"8080"`
	Env        string `env:"ENV" envDefault:"development"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"papertrade"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"papertrade"`
	DBName     string `env:"DB_NAME" envDefault:"papertrade"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"fallback-secret-key-for-dev-only"`
	JWTExpirationDur time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`

	// Admin endpoints (instrument seeding and price updates)
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// Ledger
	OpeningBalance decimal.Decimal `env:"OPENING_BALANCE" envDefault:"100000"`
	Currency       string          `env:"CURRENCY" envDefault:"INR"`

	// Trade execution
	PriceTimeout         time.Duration `env:"PRICE_TIMEOUT" envDefault:"2s"`
	StoreTimeout         time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	LockTimeout          time.Duration `env:"LOCK_TIMEOUT" envDefault:"3s"`
	LockTTL              time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	LockBackend          string        `env:"LOCK_BACKEND" envDefault:"local"`
	MaxPriceDeviationPct float64       `env:"MAX_PRICE_DEVIATION_PCT" envDefault:"0"`
	TradeRetryLimit      int           `env:"TRADE_RETRY_LIMIT" envDefault:"3"`

	// Redis (LOCK_BACKEND=redis)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Price cache
	PriceCacheTTL     time.Duration `env:"PRICE_CACHE_TTL" envDefault:"5s"`
	PriceCacheMaxCost int64         `env:"PRICE_CACHE_MAX_COST" envDefault:"10000"`

	// Trade events; publishing is disabled when no brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"papertrade.trades"`
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.LockBackend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when LOCK_BACKEND=%s", LockBackendRedis)
		}
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.LockBackend)
	}
	if c.OpeningBalance.IsNegative() {
		return fmt.Errorf("OPENING_BALANCE must not be negative")
	}
	if c.TradeRetryLimit < 1 {
		return fmt.Errorf("TRADE_RETRY_LIMIT must be at least 1")
	}
	if c.PriceTimeout <= 0 || c.StoreTimeout <= 0 || c.LockTimeout <= 0 {
		return fmt.Errorf("PRICE_TIMEOUT, STORE_TIMEOUT and LOCK_TIMEOUT must be positive")
	}
	return nil
}

// EventsEnabled reports whether trade events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
