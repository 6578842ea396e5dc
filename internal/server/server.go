package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"stock_ledger/internal/domain"
	"stock_ledger/internal/engine"
	"stock_ledger/internal/infra"
	"stock_ledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

// AccountRegistry creates accounts. Implemented by the ledger store.
type AccountRegistry interface {
	CreateAccount(ctx context.Context, username string, cash decimal.Decimal) (*domain.Account, error)
}

// Config holds server dependencies and settings
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
	StartingCash   decimal.Decimal

	Accounts  AccountRegistry
	Engine    *engine.Engine
	Portfolio *service.PortfolioService
	Metrics   *infra.Metrics
}

// Server is the JSON HTTP API over the ledger
type Server struct {
	router *chi.Mux
	server *http.Server
	log    *slog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		router: chi.NewRouter(),
		log:    slog.Default().With("module", "server"),
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	s.router.Use(noCache)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Get("/quote/{symbol}", s.handleQuote)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.handleCreateAccount)

			r.Route("/{accountID}", func(r chi.Router) {
				r.Get("/", s.handleGetPortfolio)
				r.Get("/holdings", s.handleGetHoldings)
				r.Get("/networth", s.handleGetNetWorth)
				r.Get("/history", s.handleGetHistory)
				r.Post("/buy", s.handleOrder(domain.SideBuy))
				r.Post("/sell", s.handleOrder(domain.SideSell))
			})
		})
	})
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", slog.String("addr", s.cfg.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info("HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// noCache keeps browsers and proxies from serving stale balances
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Expires", "0")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
