package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// iexQuoteResponse is the subset of the IEX Cloud quote payload we read
type iexQuoteResponse struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}

// QuoteClient looks up quotes from an IEX Cloud compatible REST API
type QuoteClient struct {
	baseURL        string
	apiKey         string
	maxAttempts    int
	retryBaseDelay time.Duration
	httpClient     *http.Client
	metrics        *Metrics
	logger         *slog.Logger
}

// NewQuoteClient creates a client against baseURL (e.g. https://cloud.iexapis.com/stable)
func NewQuoteClient(baseURL, apiKey string) *QuoteClient {
	return &QuoteClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		maxAttempts:    3,
		retryBaseDelay: time.Second,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		metrics: GlobalMetrics,
		logger:  slog.Default().With("module", "quote_client"),
	}
}

// NewQuoteClientWithConfig creates a client from the quotes section of cfg
func NewQuoteClientWithConfig(cfg *Config) *QuoteClient {
	client := NewQuoteClient(cfg.Quotes.URL, cfg.Quotes.APIKey)
	if cfg.Quotes.MaxRetries > 0 {
		client.maxAttempts = cfg.Quotes.MaxRetries
	}
	if cfg.Quotes.TimeoutSec > 0 {
		client.httpClient.Timeout = cfg.QuoteTimeout()
	}
	return client
}

// Lookup fetches the current quote for symbol with retry logic.
// A 404 or an empty payload is ErrUnknownSymbol and is not retried.
func (c *QuoteClient) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, err := c.lookup(ctx, symbol)
	c.metrics.RecordQuote(err)
	return q, err
}

func (c *QuoteClient) lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder, "", "stock symbol cannot be blank")
	}

	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 {
			// Exponential backoff: base, 2×base, 4×base
			delay := c.retryBaseDelay * time.Duration(1<<uint(i-1))
			c.logger.Info("Retrying quote lookup",
				slog.String("symbol", symbol),
				slog.Int("attempt", i),
				slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, domain.NewFatalNetworkError("lookup", ctx.Err())
			case <-time.After(delay):
			}
		}

		q, err := c.doLookup(ctx, symbol)
		if err == nil {
			return q, nil
		}
		if !domain.IsRetriable(err) {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("Quote lookup attempt failed",
			slog.String("symbol", symbol),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
	}
	return nil, lastErr
}

func (c *QuoteClient) doLookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/quote?token=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewFatalNetworkError("lookup", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, domain.NewFatalNetworkError("lookup", err)
		}
		return nil, domain.NewNetworkError("lookup", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewOrderError(domain.ErrUnknownSymbol, symbol, "stock symbol not valid")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, domain.NewNetworkError("lookup", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewFatalNetworkError("lookup", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("read", err)
	}

	var data iexQuoteResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.NewFatalNetworkError("decode", err)
	}

	q := &domain.Quote{
		Symbol: domain.NormalizeSymbol(data.Symbol),
		Name:   data.CompanyName,
		Price:  data.LatestPrice,
	}
	if !q.Valid() {
		return nil, domain.NewOrderError(domain.ErrUnknownSymbol, symbol, "no price available")
	}
	return q, nil
}
