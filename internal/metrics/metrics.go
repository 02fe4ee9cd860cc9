// Package metrics exposes Prometheus collectors for the matching engine and
// price service, served over /metrics in cmd/exchanged (Prometheus text
// exposition format), mirroring chidi150c-coinbase's metrics.go layout.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// OrdersPlaced counts PlaceOrder calls by side and market/limit kind.
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_placed_total",
			Help: "Orders accepted by the matching engine",
		},
		[]string{"side", "kind"},
	)

	// OrdersRejected counts PlaceOrder failures by error taxonomy.
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_rejected_total",
			Help: "Orders rejected by the matching engine, by reason",
		},
		[]string{"reason"},
	)

	// TradesExecuted counts trades appended by symbol.
	TradesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_trades_executed_total",
			Help: "Trades recorded by the matching engine",
		},
		[]string{"symbol"},
	)

	// MatchLatency observes PlaceOrder wall-clock duration.
	MatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_match_latency_seconds",
			Help:    "Wall-clock duration of a matching engine PlaceOrder call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	// PriceTicks counts price-service ticks by symbol.
	PriceTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_price_ticks_total",
			Help: "Price updates applied to the current-price table",
		},
		[]string{"symbol"},
	)

	// Subscribers gauges the current subscription-hub member count.
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exchange_price_subscribers",
			Help: "Current number of live price-channel subscribers",
		},
	)
)

// MustRegister registers every collector above against reg. Called once from
// cmd/exchanged at startup.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		OrdersPlaced,
		OrdersRejected,
		TradesExecuted,
		MatchLatency,
		PriceTicks,
		Subscribers,
	)
}
