package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"stock_ledger/internal/domain"
	"stock_ledger/internal/engine"
	"stock_ledger/internal/infra"
	"stock_ledger/internal/infra/storage"
	"stock_ledger/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downQuotes struct{}

func (downQuotes) Lookup(context.Context, string) (*domain.Quote, error) {
	return nil, domain.NewNetworkError("lookup", errors.New("connection refused"))
}

func newTestServer(t *testing.T, quotes domain.QuoteSource) (*Server, *storage.Storage) {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "server_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if quotes == nil {
		quotes = infra.NewStaticQuotes(map[string]infra.StaticQuote{
			"AAPL": {Name: "Apple Inc.", Price: decimal.RequireFromString("50.00")},
		})
	}
	metrics := &infra.Metrics{}

	srv := New(Config{
		StartingCash: decimal.RequireFromString("10000.00"),
		Accounts:     store,
		Engine:       engine.NewEngine(store, quotes, metrics),
		Portfolio:    service.NewPortfolioService(store, quotes, 2),
		Metrics:      metrics,
	})
	return srv, store
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_CreateAccountAndTrade(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/accounts", `{"username":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var acct domain.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	assert.True(t, acct.Cash.Equal(decimal.RequireFromString("10000.00")))

	// Shares as a JSON string
	rec = do(t, srv, http.MethodPost, "/api/accounts/1/buy", `{"symbol":"aapl","shares":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, "AAPL", tx.Symbol)
	assert.Equal(t, domain.SideBuy, tx.Side)

	// Shares as a JSON number
	rec = do(t, srv, http.MethodPost, "/api/accounts/1/sell", `{"symbol":"AAPL","shares":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/accounts/1/holdings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var holdings []service.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holdings))
	require.Len(t, holdings, 1)
	assert.Equal(t, int64(6), holdings[0].Shares)

	rec = do(t, srv, http.MethodGet, "/api/accounts/1/networth", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var nw service.NetWorth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nw))
	// 10000 - 500 + 200 = 9700 cash, 6 × 50 = 300 held
	assert.True(t, nw.Cash.Equal(decimal.RequireFromString("9700.00")))
	assert.True(t, nw.Total.Equal(decimal.RequireFromString("10000.00")))

	rec = do(t, srv, http.MethodGet, "/api/accounts/1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 2)

	rec = do(t, srv, http.MethodGet, "/api/accounts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ErrorMapping(t *testing.T) {
	srv, store := newTestServer(t, nil)
	_, err := store.CreateAccount(context.Background(), "bob", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{"fractional shares", http.MethodPost, "/api/accounts/1/buy", `{"symbol":"AAPL","shares":1.5}`, http.StatusBadRequest, domain.KindInvalidOrder},
		{"negative shares", http.MethodPost, "/api/accounts/1/buy", `{"symbol":"AAPL","shares":"-3"}`, http.StatusBadRequest, domain.KindInvalidOrder},
		{"missing shares", http.MethodPost, "/api/accounts/1/buy", `{"symbol":"AAPL"}`, http.StatusBadRequest, domain.KindInvalidOrder},
		{"unknown symbol", http.MethodPost, "/api/accounts/1/buy", `{"symbol":"ZZZZ","shares":1}`, http.StatusBadRequest, domain.KindUnknownSymbol},
		{"insufficient funds", http.MethodPost, "/api/accounts/1/buy", `{"symbol":"AAPL","shares":2}`, http.StatusBadRequest, domain.KindInsufficientFunds},
		{"insufficient shares", http.MethodPost, "/api/accounts/1/sell", `{"symbol":"AAPL","shares":1}`, http.StatusBadRequest, domain.KindInsufficientShares},
		{"unknown account", http.MethodGet, "/api/accounts/77/holdings", "", http.StatusNotFound, domain.KindNotFound},
		{"bad account id", http.MethodGet, "/api/accounts/abc/history", "", http.StatusBadRequest, domain.KindInvalidAccount},
		{"duplicate username", http.MethodPost, "/api/accounts", `{"username":"bob"}`, http.StatusConflict, domain.KindAccountExists},
		{"quote for unknown symbol", http.MethodGet, "/api/quote/ZZZZ", "", http.StatusBadRequest, domain.KindUnknownSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decodeError(t, rec).Kind)
		})
	}
}

func TestServer_QuoteOutage(t *testing.T) {
	srv, store := newTestServer(t, downQuotes{})
	_, err := store.CreateAccount(context.Background(), "carol", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/accounts/1/buy", `{"symbol":"AAPL","shares":1}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, domain.KindQuoteUnavailable, resp.Kind)
	assert.NotContains(t, resp.Error, "connection refused")
}

func TestServer_Quote(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/quote/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var q domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name)
}

func TestServer_NoCacheHeaders(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	do(t, srv, http.MethodPost, "/api/accounts/1/buy", `{"symbol":"AAPL","shares":1}`)

	rec := do(t, srv, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap infra.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.OrdersSubmitted)
	assert.Equal(t, uint64(1), snap.OrdersRejected[domain.KindNotFound])
}
