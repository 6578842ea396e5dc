package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"stock_ledger/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createAccountRequest struct {
	Username string           `json:"username"`
	Cash     *decimal.Decimal `json:"cash,omitempty"`
}

type orderRequest struct {
	Symbol string `json:"symbol"`
	// Shares accepts a JSON number or string; both are validated as digits only
	Shares json.RawMessage `json:"shares"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.Metrics.Snapshot())
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.cfg.Portfolio.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", domain.KindInvalidAccount)
		return
	}

	cash := s.cfg.StartingCash
	if req.Cash != nil {
		cash = *req.Cash
	}

	account, err := s.cfg.Accounts.CreateAccount(r.Context(), req.Username, cash)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	p, err := s.cfg.Portfolio.GetPortfolio(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	holdings, err := s.cfg.Portfolio.GetHoldings(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, holdings)
}

func (s *Server) handleGetNetWorth(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	nw, err := s.cfg.Portfolio.GetNetWorth(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nw)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.accountID(w, r)
	if !ok {
		return
	}
	history, err := s.cfg.Portfolio.GetHistory(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleOrder(side domain.Side) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.accountID(w, r)
		if !ok {
			return
		}

		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body", domain.KindInvalidOrder)
			return
		}

		tx, err := s.cfg.Engine.SubmitRaw(r.Context(), id, req.Symbol, rawShares(req.Shares), string(side))
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, tx)
	}
}

// rawShares returns the literal text of a JSON string or number
func rawShares(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}

func (s *Server) accountID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "accountID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid account id: "+raw, domain.KindInvalidAccount)
		return 0, false
	}
	return uint(id), true
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind string) int {
	switch kind {
	case domain.KindInvalidOrder, domain.KindUnknownSymbol, domain.KindInsufficientFunds,
		domain.KindInsufficientShares, domain.KindInvalidAccount:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAccountExists:
		return http.StatusConflict
	case domain.KindQuoteUnavailable:
		return http.StatusBadGateway
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	if status >= 500 {
		s.log.Error("Request failed", "kind", kind, "error", err)
		// Infrastructure details stay in the log
		msg = http.StatusText(status)
	}
	s.writeError(w, status, msg, kind)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, kind string) {
	s.writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}
