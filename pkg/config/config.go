package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port            string
	Env             string // development, staging, production
	APIRateLimit    int    // requests per client per minute, 0 = unlimited
	ShutdownTimeout time.Duration

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Quotes QuotesConfig

	// Analytics constants consumed by the performance and fee engines
	Analytics AnalyticsConfig

	// Optional YAML file of named fee profiles
	FeeScheduleFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// QuotesConfig holds the daily-close quote API configuration
type QuotesConfig struct {
	BaseURL    string
	APIKey     string
	RatePerSec float64
	Timeout    time.Duration
}

// AnalyticsConfig holds the constants the analytics core needs.
// It is passed explicitly to analyzers instead of living in a global.
type AnalyticsConfig struct {
	RiskFreeRate decimal.Decimal // annual
	DaysInYear   decimal.Decimal
	MonthsInYear int

	BenchmarkSymbol     string
	RollingWindowMonths int

	// Scheduled report refresh
	Watchlist      []string
	ReportSchedule string
	ReportCacheTTL time.Duration
}

// MonthlyRiskFreeRate returns the annual risk-free rate divided by MonthsInYear.
func (a AnalyticsConfig) MonthlyRiskFreeRate() decimal.Decimal {
	return a.RiskFreeRate.Div(decimal.NewFromInt(int64(a.MonthsInYear)))
}

// DefaultAnalytics returns the analytics constants used when nothing is configured.
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		RiskFreeRate:        decimal.RequireFromString("0.02"),
		DaysInYear:          decimal.RequireFromString("365.25"),
		MonthsInYear:        12,
		BenchmarkSymbol:     "SPY",
		RollingWindowMonths: 12,
		ReportSchedule:      "0 30 18 * * 1-5",
		ReportCacheTTL:      6 * time.Hour,
	}
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	return LoadWithEnvFile("")
}

// LoadWithEnvFile is Load with an explicit .env path. An empty path
// searches the default locations.
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		loadEnvFile()
	}

	defaults := DefaultAnalytics()

	cfg := &Config{
		// Server
		Port:            getEnv("PORT", "8090"),
		Env:             getEnv("ENV", "development"),
		APIRateLimit:    getEnvAsInt("API_RATE_LIMIT", 120),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Quotes: QuotesConfig{
			BaseURL:    getEnv("QUOTES_BASE_URL", ""),
			APIKey:     getEnv("QUOTES_API_KEY", ""),
			RatePerSec: getEnvAsFloat("QUOTES_RATE_PER_SEC", 5),
			Timeout:    getEnvAsDuration("QUOTES_TIMEOUT", "15s"),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:        getEnvAsDecimal("RISK_FREE_RATE", defaults.RiskFreeRate),
			DaysInYear:          getEnvAsDecimal("DAYS_IN_YEAR", defaults.DaysInYear),
			MonthsInYear:        getEnvAsInt("MONTHS_IN_YEAR", defaults.MonthsInYear),
			BenchmarkSymbol:     getEnv("BENCHMARK_SYMBOL", defaults.BenchmarkSymbol),
			RollingWindowMonths: getEnvAsInt("ROLLING_WINDOW_MONTHS", defaults.RollingWindowMonths),
			Watchlist:           getEnvAsList("REPORT_WATCHLIST"),
			ReportSchedule:      getEnv("REPORT_SCHEDULE", defaults.ReportSchedule),
			ReportCacheTTL:      getEnvAsDuration("REPORT_CACHE_TTL", defaults.ReportCacheTTL.String()),
		},

		FeeScheduleFile: getEnv("FEE_SCHEDULE_FILE", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
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

	if !c.Analytics.DaysInYear.IsPositive() {
		return fmt.Errorf("DAYS_IN_YEAR must be > 0")
	}
	if c.Analytics.MonthsInYear <= 0 {
		return fmt.Errorf("MONTHS_IN_YEAR must be > 0")
	}
	if c.APIRateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must be >= 0")
	}
	if c.Analytics.RollingWindowMonths <= 0 {
		return fmt.Errorf("ROLLING_WINDOW_MONTHS must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := decimal.NewFromString(valueStr)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
