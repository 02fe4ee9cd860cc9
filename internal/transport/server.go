// Package transport is an illustrative REST+WebSocket shim over the
// matching core and price-distribution core: a Server owning an
// *http.Server and mux, Handlers holding the wired dependencies, and a
// WebSocket hub/client pump pair.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"exchanged/internal/ledger"
	"exchanged/internal/matching"
	"exchanged/internal/priceservice"
	"exchanged/internal/query"
)

// Server runs the HTTP/WebSocket transport for the exchange core.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// Config controls transport construction (addresses only; see
// internal/config.TransportConfig for the on-disk shape).
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
}

// NewServer wires handlers, the WebSocket upgrade endpoint, and a
// Prometheus /metrics endpoint onto one mux.
func NewServer(cfg Config, engine *matching.Engine, surface *query.Surface, balances *ledger.BalanceStore, hub *priceservice.Hub, svc *priceservice.Service, logger *slog.Logger) *Server {
	handlers := NewHandlers(engine, surface, balances, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.HandleFunc("POST /api/orders", handlers.HandlePlaceOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", handlers.HandleCancelOrder)
	mux.HandleFunc("GET /api/book", handlers.HandleBook)
	mux.HandleFunc("GET /api/users/{id}/orders", handlers.HandleUserOrders)
	mux.HandleFunc("GET /api/users/{id}/balances", handlers.HandleUserBalances)
	mux.HandleFunc("GET /api/trades", handlers.HandleTrades)
	mux.HandleFunc("GET /ws", handlers.HandleWebSocket(hub, svc, cfg.AllowedOrigins))
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server: httpServer,
		logger: logger.With("component", "transport-server"),
	}
}

// Start runs the HTTP server until it is stopped. Blocks; meant to run in a
// goroutine.
func (s *Server) Start() error {
	s.logger.Info("transport server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("transport: server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down within a bounded timeout.
func (s *Server) Stop() error {
	s.logger.Info("stopping transport server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
