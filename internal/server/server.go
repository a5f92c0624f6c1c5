// Package server exposes the liquidity transaction pipeline over HTTP and
// WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/server/handler"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/server/middleware"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimitRequests caps requests per client IP per RateLimitWindow.
	// Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health       *handler.HealthHandler
	Liquidity    *handler.LiquidityHandler
	Transactions *handler.TransactionHandler
}

// Server is the HTTP + WebSocket API server for the liquidity pipeline.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain (request id, logging, auth, rate limit, CORS) applied. A nil limiter
// disables rate limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required by the auth middleware's path rules).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Liquidity endpoints.
	mux.HandleFunc("POST /api/liquidity/deposit", handlers.Liquidity.Deposit)
	mux.HandleFunc("POST /api/liquidity/claim-fees", handlers.Liquidity.ClaimFees)
	mux.HandleFunc("GET /api/liquidity/fees", handlers.Liquidity.Fees)
	mux.HandleFunc("GET /api/liquidity/positions", handlers.Liquidity.Positions)
	mux.HandleFunc("POST /api/liquidity/position/close", handlers.Liquidity.ClosePosition)

	// Transaction endpoints.
	mux.HandleFunc("POST /api/transaction/submit", handlers.Transactions.Submit)
	mux.HandleFunc("GET /api/transaction", handlers.Transactions.History)
	mux.HandleFunc("GET /api/transaction/{signature}", handlers.Transactions.Status)

	// WebSocket endpoint for confirmation events.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimitRequests > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitRequests, cfg.RateLimitWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
