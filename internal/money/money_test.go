package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundPrice(t *testing.T) {
	t.Parallel()

	got := RoundPrice(decimal.NewFromFloat(64321.556))
	want := decimal.NewFromFloat(64321.56)
	if !got.Equal(want) {
		t.Fatalf("RoundPrice = %s, want %s", got, want)
	}
}

func TestRoundQuantity(t *testing.T) {
	t.Parallel()

	got := RoundQuantity(decimal.RequireFromString("1.123456789"))
	want := decimal.RequireFromString("1.12345679")
	if !got.Equal(want) {
		t.Fatalf("RoundQuantity = %s, want %s", got, want)
	}
}

func TestMin(t *testing.T) {
	t.Parallel()

	a := decimal.NewFromInt(3)
	b := decimal.NewFromInt(5)
	if got := Min(a, b); !got.Equal(a) {
		t.Fatalf("Min(3, 5) = %s, want 3", got)
	}
	if got := Min(b, a); !got.Equal(a) {
		t.Fatalf("Min(5, 3) = %s, want 3", got)
	}
}
