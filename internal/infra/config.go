package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"stock_ledger/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the ledger to quote providers
	DefaultUserAgent = "stock-ledger/1.0 (+https://github.com/stock-ledger)"

	// DefaultConfigPath is where LoadConfig looks when no path is given
	DefaultConfigPath = "configs/config.yaml"

	QuoteProviderIEX    = "iex"
	QuoteProviderStatic = "static"
)

// StaticQuote is one entry of the static price table.
type StaticQuote struct {
	Name  string          `yaml:"name"`
	Price decimal.Decimal `yaml:"price"`
}

// Config holds every application setting.
// Sensitive values are overridden from the environment after LoadConfig.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Ledger struct {
		StartingCash decimal.Decimal `yaml:"starting_cash"`
	} `yaml:"ledger"`

	Quotes struct {
		Provider       string                 `yaml:"provider"` // "iex" or "static"
		URL            string                 `yaml:"url"`
		APIKey         string                 `yaml:"api_key"`
		TimeoutSec     int                    `yaml:"timeout_sec"`
		MaxRetries     int                    `yaml:"max_retries"`
		CacheTTLSec    int                    `yaml:"cache_ttl_sec"` // 0 disables caching
		MaxConcurrency int                    `yaml:"max_concurrency"`
		Static         map[string]StaticQuote `yaml:"static"`
	} `yaml:"quotes"`

	Server struct {
		Addr              string   `yaml:"addr"`
		RequestTimeoutSec int      `yaml:"request_timeout_sec"`
		AllowedOrigins    []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration usable without a file: static quotes,
// a local database and 10000.00 starting cash.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "stock-ledger"
	cfg.App.Version = "dev"
	cfg.Database.Path = "data/ledger.db"
	cfg.Ledger.StartingCash = decimal.RequireFromString("10000.00")
	cfg.Quotes.Provider = QuoteProviderStatic
	cfg.Quotes.URL = "https://cloud.iexapis.com/stable"
	cfg.Quotes.TimeoutSec = 10
	cfg.Quotes.MaxRetries = 3
	cfg.Quotes.MaxConcurrency = 5
	cfg.Server.Addr = "localhost:8080"
	cfg.Server.RequestTimeoutSec = 15
	cfg.Logging.Level = "info"
	cfg.Logging.File = "logs/ledger.log"
	cfg.Logging.MaxSizeMB = 10
	cfg.Logging.MaxBackups = 3
	cfg.Logging.MaxAgeDays = 28
	return &cfg
}

// LoadConfig reads and parses the YAML file at path on top of DefaultConfig.
// A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.Any("error", err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &domain.ConfigError{Field: "yaml", Err: err}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return &domain.ConfigError{Field: "database.path", Err: errors.New("must not be empty")}
	}

	if c.Ledger.StartingCash.IsNegative() {
		return &domain.ConfigError{Field: "ledger.starting_cash", Err: errors.New("must not be negative")}
	}

	switch c.Quotes.Provider {
	case QuoteProviderIEX:
		if !strings.HasPrefix(c.Quotes.URL, "http://") && !strings.HasPrefix(c.Quotes.URL, "https://") {
			return &domain.ConfigError{Field: "quotes.url", Err: fmt.Errorf("invalid URL: %q", c.Quotes.URL)}
		}
		if c.Quotes.APIKey == "" {
			return &domain.ConfigError{Field: "quotes.api_key", Err: errors.New("API_KEY not set")}
		}
	case QuoteProviderStatic:
		for symbol, q := range c.Quotes.Static {
			if !q.Price.IsPositive() {
				return &domain.ConfigError{Field: "quotes.static." + symbol, Err: errors.New("price must be positive")}
			}
		}
	default:
		return &domain.ConfigError{Field: "quotes.provider", Err: fmt.Errorf("unknown provider %q", c.Quotes.Provider)}
	}

	if c.Quotes.TimeoutSec <= 0 {
		return &domain.ConfigError{Field: "quotes.timeout_sec", Err: errors.New("must be positive")}
	}
	if c.Quotes.MaxRetries <= 0 {
		return &domain.ConfigError{Field: "quotes.max_retries", Err: errors.New("must be positive")}
	}
	if c.Quotes.CacheTTLSec < 0 {
		return &domain.ConfigError{Field: "quotes.cache_ttl_sec", Err: errors.New("must not be negative")}
	}
	if c.Quotes.MaxConcurrency <= 0 {
		return &domain.ConfigError{Field: "quotes.max_concurrency", Err: errors.New("must be positive")}
	}

	if c.Server.RequestTimeoutSec <= 0 {
		return &domain.ConfigError{Field: "server.request_timeout_sec", Err: errors.New("must be positive")}
	}

	return nil
}

// QuoteTimeout returns the per-request quote timeout.
func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quotes.TimeoutSec) * time.Second
}

// QuoteCacheTTL returns the quote cache lifetime. Zero disables caching.
func (c *Config) QuoteCacheTTL() time.Duration {
	return time.Duration(c.Quotes.CacheTTLSec) * time.Second
}

// RequestTimeout returns the HTTP request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// overrideWithEnv overwrites settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("API_KEY"); key != "" {
		cfg.Quotes.APIKey = key
	}
	if key := os.Getenv("LEDGER_QUOTE_API_KEY"); key != "" {
		cfg.Quotes.APIKey = key
	}
	if path := os.Getenv("LEDGER_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if level := os.Getenv("LEDGER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
