// Package registry provides the static, process-lifetime table of supported
// trading symbols. The set is closed at construction time and
// never mutated afterward, so reads need no locking.
package registry

import (
	"fmt"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/xerr"
)

// Registry is a read-only lookup over the supported symbol set.
type Registry struct {
	bySymbol map[domain.Ticker]domain.Symbol
	ordered  []domain.Symbol
}

// New builds a Registry from an explicit symbol list. Order is preserved for
// List().
func New(symbols []domain.Symbol) *Registry {
	r := &Registry{
		bySymbol: make(map[domain.Ticker]domain.Symbol, len(symbols)),
		ordered:  make([]domain.Symbol, 0, len(symbols)),
	}
	for _, s := range symbols {
		if _, dup := r.bySymbol[s.Ticker]; dup {
			continue
		}
		r.bySymbol[s.Ticker] = s
		r.ordered = append(r.ordered, s)
	}
	return r
}

// Default returns the built-in symbol universe used when configuration does
// not override it.
func Default() []domain.Symbol {
	return []domain.Symbol{
		{Ticker: "BTC-USD", DisplayName: "Bitcoin", SeedPrice: decimal.NewFromFloat(64321.55), MarketCapHint: decimal.NewFromInt(1_270_000_000_000)},
		{Ticker: "ETH-USD", DisplayName: "Ethereum", SeedPrice: decimal.NewFromFloat(3456.78), MarketCapHint: decimal.NewFromInt(415_000_000_000)},
		{Ticker: "SOL-USD", DisplayName: "Solana", SeedPrice: decimal.NewFromFloat(178.23), MarketCapHint: decimal.NewFromInt(83_000_000_000)},
		{Ticker: "XRP-USD", DisplayName: "XRP", SeedPrice: decimal.NewFromFloat(0.5421), MarketCapHint: decimal.NewFromInt(30_000_000_000)},
	}
}

// Exists reports whether ticker is a supported symbol.
func (r *Registry) Exists(ticker domain.Ticker) bool {
	_, ok := r.bySymbol[ticker]
	return ok
}

// Get returns the Symbol for ticker, or an error if unsupported.
func (r *Registry) Get(ticker domain.Ticker) (domain.Symbol, error) {
	s, ok := r.bySymbol[ticker]
	if !ok {
		return domain.Symbol{}, fmt.Errorf("registry: %s: %w", ticker, xerr.ErrUnknownSymbol)
	}
	return s, nil
}

// List returns every supported symbol in registration order.
func (r *Registry) List() []domain.Symbol {
	out := make([]domain.Symbol, len(r.ordered))
	copy(out, r.ordered)
	return out
}
