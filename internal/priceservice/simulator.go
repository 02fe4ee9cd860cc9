package priceservice

import (
	"context"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/money"
)

// Simulator draws a uniform random delta in [-2%, +2%] of the previous
// price and rounds to two decimals. Used whenever the
// external provider is absent or disabled.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator creates a Simulator backed by a fresh, randomly seeded source. Each
// call to Quote is safe from multiple goroutines only if callers serialize
// access — the price service drives one tick at a time, so no
// locking is needed here.
func NewSimulator() *Simulator {
	return &Simulator{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Quote implements Provider.
func (s *Simulator) Quote(_ context.Context, _ domain.Ticker, prev decimal.Decimal) (decimal.Decimal, error) {
	// delta in [-0.02, 0.02]
	delta := decimal.NewFromFloat(s.rng.Float64()*0.04 - 0.02)
	next := prev.Add(prev.Mul(delta))
	return money.RoundPrice(next), nil
}
