// exchanged is the single-venue spot exchange core: matching & settlement
// plus real-time price distribution.
//
// Architecture:
//
//	main.go                       — entry point: loads config, wires every component, waits for SIGINT/SIGTERM
//	internal/registry             — static, process-lifetime symbol table
//	internal/ledger               — balance, order, and trade stores
//	internal/matching             — the matching engine transaction body
//	internal/query                — read-only paginated book/order/trade views
//	internal/priceservice         — periodic price refresh, simulator/external providers, subscription hub
//	internal/events               — best-effort trade/price-tick publisher
//	internal/transport            — illustrative REST+WebSocket shim over the core
//	internal/config               — YAML + env var configuration
//	internal/metrics              — Prometheus collectors
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"exchanged/internal/config"
	"exchanged/internal/domain"
	"exchanged/internal/events"
	"exchanged/internal/ledger"
	"exchanged/internal/matching"
	"exchanged/internal/metrics"
	"exchanged/internal/priceservice"
	"exchanged/internal/query"
	"exchanged/internal/registry"
	"exchanged/internal/transport"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("EXCHANGE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	symbols := registry.Default()
	if len(cfg.PriceService.SupportedSymbols) > 0 {
		symbols = filterSymbols(symbols, cfg.PriceService.SupportedSymbols)
	}
	reg := registry.New(symbols)

	balances := ledger.NewBalanceStore()
	orders := ledger.NewOrderStore()
	trades := ledger.NewTradeStore()

	publisher := events.NewLogPublisher(logger)

	marketMaker := domain.UserID(cfg.Matching.MarketMakerUserID)
	seedMarketMakerInventory(balances, symbols, marketMaker)

	engine := matching.New(reg, balances, orders, trades, marketMaker, publisher, logger)
	surface := query.New(orders, trades)

	var provider priceservice.Provider
	if cfg.PriceService.Source == config.PriceSourceExternal {
		provider = priceservice.NewExternalProvider(cfg.PriceService.ExternalBaseURL, cfg.PriceService.ExternalTimeout)
	} else {
		provider = priceservice.NewSimulator()
	}

	hub := priceservice.NewHub(logger)
	priceSvc := priceservice.New(reg, provider, hub, publisher, cfg.PriceService.TickInterval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go priceSvc.Start(ctx)

	var server *transport.Server
	if cfg.Transport.Enabled {
		server = transport.NewServer(transport.Config{
			ListenAddr: cfg.Transport.ListenAddr,
		}, engine, surface, balances, hub, priceSvc, logger)

		go func() {
			if err := server.Start(); err != nil {
				logger.Error("transport server failed", "error", err)
			}
		}()
		logger.Info("transport started", "addr", cfg.Transport.ListenAddr)
	}

	logger.Info("exchange core started",
		"symbols", len(symbols),
		"price_source", cfg.PriceService.Source,
		"tick_interval", cfg.PriceService.TickInterval,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if server != nil {
		if err := server.Stop(); err != nil {
			logger.Error("failed to stop transport server", "error", err)
		}
	}
	cancel()
}

// seedMarketMakerInventory gives the market-maker account starting
// inventory in every supported asset so market orders have a counterparty
// to fill against at startup. Not a specified operation; an operational
// convenience for a process that otherwise starts with every balance at
// zero.
func seedMarketMakerInventory(balances *ledger.BalanceStore, symbols []domain.Symbol, marketMaker domain.UserID) {
	seed := decimal.NewFromInt(1000)
	for _, sym := range symbols {
		balances.Credit(marketMaker, sym.Ticker, seed)
	}
}

func filterSymbols(all []domain.Symbol, tickers []string) []domain.Symbol {
	want := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		want[t] = true
	}
	out := make([]domain.Symbol, 0, len(all))
	for _, s := range all {
		if want[string(s.Ticker)] {
			out = append(out, s)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
