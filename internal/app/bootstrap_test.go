package app

import (
	"context"
	"path/filepath"
	"testing"

	"stock_ledger/internal/infra"
	"stock_ledger/internal/service"

	"github.com/shopspring/decimal"
)

func testConfig(t *testing.T) *infra.Config {
	cfg := infra.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "ledger.db")
	cfg.Logging.File = ""
	cfg.Logging.Level = "error"
	cfg.Quotes.Static = map[string]infra.StaticQuote{
		"AAPL": {Name: "Apple Inc.", Price: decimal.RequireFromString("50.00")},
	}
	return cfg
}

func TestBootstrap_WiresComponents(t *testing.T) {
	b := NewBootstrap()
	if err := b.InitializeWith(testConfig(t)); err != nil {
		t.Fatalf("InitializeWith failed: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	acct, err := b.Storage.CreateAccount(ctx, "alice", b.Config.Ledger.StartingCash)
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	if _, err := b.Engine.Buy(ctx, acct.ID, "AAPL", 10); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	nw, err := b.Portfolio.GetNetWorth(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetNetWorth failed: %v", err)
	}
	if !nw.Total.Equal(decimal.RequireFromString("10000.00")) {
		t.Errorf("Expected net worth 10000.00, got %s", nw.Total)
	}

	if b.NewServer() == nil {
		t.Error("NewServer returned nil")
	}
}

func TestBootstrap_QuoteCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quotes.CacheTTLSec = 30

	if _, ok := newQuoteSource(cfg).(*service.QuoteCache); !ok {
		t.Error("Expected a cached quote source when cache_ttl_sec > 0")
	}

	cfg.Quotes.CacheTTLSec = 0
	if _, ok := newQuoteSource(cfg).(*infra.StaticQuotes); !ok {
		t.Error("Expected the static source when caching is disabled")
	}

	cfg.Quotes.Provider = infra.QuoteProviderIEX
	cfg.Quotes.APIKey = "pk_test"
	if _, ok := newQuoteSource(cfg).(*infra.QuoteClient); !ok {
		t.Error("Expected the IEX client for provider iex")
	}
}

func TestBootstrap_MissingConfig(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close without Initialize should be a no-op, got %v", err)
	}
}
