package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 全ての環境変数はここでのみ読み込む
type Config struct {
	Env string // development, staging, production

	// Yahoo Finance Japan endpoints
	Yahoo YahooConfig

	// Scraper behaviour
	Scraper ScraperConfig

	// Output
	Output OutputConfig

	// Optional Postgres persistence
	Database DatabaseConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// YahooConfig holds Yahoo Finance Japan endpoint configuration
type YahooConfig struct {
	BaseURL      string // ranking pages origin
	QuoteBaseURL string // per-symbol quote pages
	ChartBaseURL string // historical chart JSON API
}

// ScraperConfig holds scraping behaviour configuration
type ScraperConfig struct {
	RequestDelay time.Duration // wait between consecutive ranking pages
	DetailDelay  time.Duration // wait between per-symbol history lookups
	Timeout      time.Duration
	MaxPages     int // default page count for multi-page collection
	DetailLimit  int // max symbols enriched with history per run
}

// OutputConfig holds CSV output configuration
type OutputConfig struct {
	Dir string
}

// DatabaseConfig holds PostgreSQL configuration.
// Persistence is optional: an empty URL disables it.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether Postgres persistence is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: この関数だけが os.Getenv() を呼ぶ
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Yahoo: YahooConfig{
			BaseURL:      getEnv("YAHOO_BASE_URL", "https://finance.yahoo.co.jp"),
			QuoteBaseURL: getEnv("YAHOO_QUOTE_BASE_URL", "https://finance.yahoo.co.jp/quote"),
			ChartBaseURL: getEnv("YAHOO_CHART_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		},

		Scraper: ScraperConfig{
			RequestDelay: getEnvAsDuration("SCRAPER_REQUEST_DELAY", "1s"),
			DetailDelay:  getEnvAsDuration("SCRAPER_DETAIL_DELAY", "500ms"),
			Timeout:      getEnvAsDuration("SCRAPER_TIMEOUT", "30s"),
			MaxPages:     getEnvAsInt("SCRAPER_MAX_PAGES", 3),
			DetailLimit:  getEnvAsInt("SCRAPER_DETAIL_LIMIT", 25),
		},

		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "work"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("SCRAPER_MAX_PAGES must be at least 1")
	}

	if c.Scraper.RequestDelay < 0 {
		return fmt.Errorf("SCRAPER_REQUEST_DELAY must not be negative")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
