// Package priceservice maintains the current-price table for every
// supported symbol, updates it on a fixed cadence, and fans out updates to
// subscribers of the price channel.
package priceservice

import (
	"context"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
)

// Provider supplies a new price for one ticker given the previous one.
// Errors for individual symbols are logged and skipped by the Service, not
// fatal.
type Provider interface {
	Quote(ctx context.Context, ticker domain.Ticker, prev decimal.Decimal) (decimal.Decimal, error)
}
