package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else; every component
// receives the values it needs through this struct.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional; the engine runs without persistence)
	Database DatabaseConfig

	// Redis response cache
	Redis RedisConfig

	// External APIs
	Edgar    EdgarConfig
	Newswire NewswireConfig
	Yahoo    YahooConfig

	// Backtest defaults
	Backtest BacktestConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL     string
	Enabled bool

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EdgarConfig holds SEC EDGAR full-text search configuration.
type EdgarConfig struct {
	APIKey  string
	BaseURL string
}

// NewswireConfig holds the news sentiment API configuration.
type NewswireConfig struct {
	AppID   string
	APIKey  string
	BaseURL string
}

// YahooConfig holds the Yahoo Finance chart API configuration.
type YahooConfig struct {
	BaseURL string
}

// BacktestConfig holds the engine's tunable parameters.
type BacktestConfig struct {
	SentimentWindowBeforeDays int
	SentimentWindowAfterDays  int
	HoldingDays               int
	MatchLookbackStart        time.Time // zero value means "from the beginning"
	ConcurrencyLimit          int
	PerCallTimeout            time.Duration
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8084"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Enabled:         getEnvAsBool("DATABASE_ENABLED", false),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Edgar: EdgarConfig{
			APIKey:  getEnv("SEC_API_KEY", ""),
			BaseURL: getEnv("SEC_BASE_URL", "https://api.sec-api.io"),
		},

		Newswire: NewswireConfig{
			AppID:   getEnv("NEWSWIRE_APP_ID", ""),
			APIKey:  getEnv("NEWSWIRE_API_KEY", ""),
			BaseURL: getEnv("NEWSWIRE_BASE_URL", "https://api.aylien.com/news"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},

		Backtest: BacktestConfig{
			SentimentWindowBeforeDays: getEnvAsInt("SENTIMENT_WINDOW_BEFORE_DAYS", 7),
			SentimentWindowAfterDays:  getEnvAsInt("SENTIMENT_WINDOW_AFTER_DAYS", 7),
			HoldingDays:               getEnvAsInt("HOLDING_DAYS", 30),
			MatchLookbackStart:        getEnvAsDate("MATCH_LOOKBACK_START", time.Time{}),
			ConcurrencyLimit:          getEnvAsInt("CONCURRENCY_LIMIT", 8),
			PerCallTimeout:            getEnvAsDuration("PER_CALL_TIMEOUT", "10s"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DATABASE_ENABLED=true")
	}

	if c.Backtest.ConcurrencyLimit < 1 {
		return fmt.Errorf("CONCURRENCY_LIMIT must be at least 1")
	}

	if c.Backtest.HoldingDays < 1 {
		return fmt.Errorf("HOLDING_DAYS must be at least 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsDate(key string, defaultValue time.Time) time.Time {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	date, err := time.Parse("2006-01-02", valueStr)
	if err != nil {
		return defaultValue
	}

	return date
}
