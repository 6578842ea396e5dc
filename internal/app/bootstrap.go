package app

import (
	"errors"
	"log/slog"

	"stock_ledger/internal/domain"
	"stock_ledger/internal/engine"
	"stock_ledger/internal/infra"
	"stock_ledger/internal/infra/storage"
	"stock_ledger/internal/server"
	"stock_ledger/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Storage   *storage.Storage
	Quotes    domain.QuoteSource
	Metrics   *infra.Metrics
	Engine    *engine.Engine
	Portfolio *service.PortfolioService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration from configPath and wires every component
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	return b.InitializeWith(cfg)
}

// InitializeWith wires every component from an already loaded configuration
func (b *Bootstrap) InitializeWith(cfg *infra.Config) error {
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping ledger",
		slog.String("version", cfg.App.Version),
		slog.String("quotes", cfg.Quotes.Provider))

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Database.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("Database initialized", slog.String("path", cfg.Database.Path))

	// 4. Quote source
	b.Metrics = infra.GlobalMetrics
	b.Quotes = newQuoteSource(cfg)

	// 5. Core
	b.Engine = engine.NewEngine(b.Storage, b.Quotes, b.Metrics)
	b.Portfolio = service.NewPortfolioService(b.Storage, b.Quotes, cfg.Quotes.MaxConcurrency)

	return nil
}

func newQuoteSource(cfg *infra.Config) domain.QuoteSource {
	var src domain.QuoteSource
	switch cfg.Quotes.Provider {
	case infra.QuoteProviderIEX:
		src = infra.NewQuoteClientWithConfig(cfg)
	default:
		src = infra.NewStaticQuotes(cfg.Quotes.Static)
	}

	if ttl := cfg.QuoteCacheTTL(); ttl > 0 {
		slog.Info("Quote cache enabled", slog.Duration("ttl", ttl))
		return service.NewQuoteCache(src, ttl)
	}
	return src
}

// NewServer builds the HTTP API over the wired components
func (b *Bootstrap) NewServer() *server.Server {
	return server.New(server.Config{
		Addr:           b.Config.Server.Addr,
		RequestTimeout: b.Config.RequestTimeout(),
		AllowedOrigins: b.Config.Server.AllowedOrigins,
		StartingCash:   b.Config.Ledger.StartingCash,
		Accounts:       b.Storage,
		Engine:         b.Engine,
		Portfolio:      b.Portfolio,
		Metrics:        b.Metrics,
	})
}

// Close releases resources acquired by Initialize
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	if err := b.Storage.Close(); err != nil {
		return errors.Join(errors.New("failed to close storage"), err)
	}
	return nil
}
