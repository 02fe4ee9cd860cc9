// Package money centralizes the fixed-point scales used across the exchange
// core: eight fractional digits for quantities and two for prices, carried
// without loss via decimal.Decimal. Every monetary or quantity field in
// internal/domain is a decimal.Decimal, never a float.
package money

import "github.com/shopspring/decimal"

// PriceScale is the number of fractional digits carried by price fields.
const PriceScale = 2

// QuantityScale is the number of fractional digits carried by quantity
// fields (asset amounts, locked amounts, order/trade quantities).
const QuantityScale = 8

// RoundPrice rounds d to PriceScale fractional digits using
// decimal.Decimal's default half-away-from-zero behavior.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// RoundQuantity rounds d to QuantityScale fractional digits.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
