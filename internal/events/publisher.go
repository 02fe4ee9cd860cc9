// Package events models the optional append-only sink for trade and price
// events. The matching engine and price service both
// treat this as best-effort: absence or failure of the sink must never
// affect the matcher or the price service, so every call site
// logs-and-continues rather than propagating the error.
package events

import (
	"log/slog"

	"exchanged/internal/domain"
)

// Publisher is a best-effort sink for committed trades and price ticks.
type Publisher interface {
	PublishTrade(domain.Trade) error
	PublishPriceTick(map[domain.Ticker]domain.PriceSnapshot) error
}

// NoopPublisher discards everything. It is the default when no sink is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTrade(domain.Trade) error                             { return nil }
func (NoopPublisher) PublishPriceTick(map[domain.Ticker]domain.PriceSnapshot) error { return nil }

// LogPublisher writes every event to a structured logger. Used by the
// reference binary so the event stream stays observable without standing up
// a real broker (Kafka, NATS, ...).
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a Publisher backed by logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (p *LogPublisher) PublishTrade(t domain.Trade) error {
	p.logger.Info("trade",
		"id", t.ID,
		"symbol", t.Symbol,
		"price", t.Price.String(),
		"quantity", t.Quantity.String(),
		"buyer", t.Buyer.UserID,
		"seller", t.Seller.UserID,
	)
	return nil
}

func (p *LogPublisher) PublishPriceTick(snapshot map[domain.Ticker]domain.PriceSnapshot) error {
	for ticker, snap := range snapshot {
		p.logger.Debug("price tick",
			"ticker", ticker,
			"price", snap.Price.String(),
			"change_percent", snap.ChangePercent.String(),
		)
	}
	return nil
}
