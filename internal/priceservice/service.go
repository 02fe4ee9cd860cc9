package priceservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/events"
	"exchanged/internal/metrics"
	"exchanged/internal/money"
	"exchanged/internal/registry"
)

// Service periodically refreshes the in-memory current-price table and
// notifies the subscription hub, running a time.NewTicker + select-over-ctx
// loop until its context is cancelled.
type Service struct {
	registry *registry.Registry
	provider Provider
	hub      *Hub
	events   events.Publisher
	interval time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	current map[domain.Ticker]domain.PriceSnapshot
}

// New creates a price service. interval is the minimum time between ticks;
// values <= 0 fall back to one second.
func New(reg *registry.Registry, provider Provider, hub *Hub, publisher events.Publisher, interval time.Duration, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{
		registry: reg,
		provider: provider,
		hub:      hub,
		events:   publisher,
		interval: interval,
		logger:   logger.With("component", "priceservice"),
		current:  make(map[domain.Ticker]domain.PriceSnapshot),
	}
}

// Start performs one synchronous tick (so subscribers connecting
// immediately receive a populated snapshot, startup contract),
// then runs the periodic loop until ctx is cancelled. Start blocks; callers
// should run it in a goroutine.
func (s *Service) Start(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Current returns a copy of the current-price table, suitable for
// delivering as a Subscribe snapshot.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Snapshot, len(s.current))
	for k, v := range s.current {
		out[k] = v
	}
	return out
}

// tick refreshes every symbol's price, computes change/change_percent,
// swaps the table, and fans out to subscribers.
func (s *Service) tick(ctx context.Context) {
	for _, sym := range s.registry.List() {
		s.refreshOne(ctx, sym)
	}

	snapshot := s.Current()
	s.hub.Broadcast(snapshot)

	if err := s.events.PublishPriceTick(snapshot); err != nil {
		s.logger.Warn("price tick publish failed", "error", err)
	}
}

func (s *Service) refreshOne(ctx context.Context, sym domain.Symbol) {
	s.mu.RLock()
	prevSnap, hadPrev := s.current[sym.Ticker]
	s.mu.RUnlock()

	prevPrice := sym.SeedPrice
	if hadPrev {
		prevPrice = prevSnap.Price
	}

	newPrice, err := s.provider.Quote(ctx, sym.Ticker, prevPrice)
	if err != nil {
		// Errors for individual symbols are logged and skipped, not fatal:
		// one provider hiccup should never take down the whole tick.
		s.logger.Warn("price quote failed, skipping symbol", "ticker", sym.Ticker, "error", err)
		return
	}
	newPrice = money.RoundPrice(newPrice)

	change := decimal.Zero
	changePercent := decimal.Zero
	if hadPrev && !prevPrice.IsZero() {
		change = newPrice.Sub(prevPrice)
		changePercent = change.Div(prevPrice).Mul(decimal.NewFromInt(100))
	}

	next := domain.PriceSnapshot{
		Ticker:        sym.Ticker,
		Price:         newPrice,
		PrevPrice:     prevPrice,
		HasPrev:       hadPrev,
		Change:        change,
		ChangePercent: changePercent,
		MarketCap:     sym.MarketCapHint,
		UpdatedAt:     time.Now(),
	}

	s.mu.Lock()
	s.current[sym.Ticker] = next
	s.mu.Unlock()

	metrics.PriceTicks.WithLabelValues(string(sym.Ticker)).Inc()
}
