// Package domain defines the shared data structures used across all packages.
//
// This is the common vocabulary for the exchange core — symbols, balances,
// orders, trades, and price snapshots. It has no dependencies on any other
// internal package, so it can be imported by every layer (ledger, matching,
// priceservice, query, transport) without creating cycles.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserID identifies an account. The zero value is reserved for the
// market-maker pseudo-account (see MarketMakerID) and is never a real,
// registered user.
type UserID int64

// MarketMakerID is the process-wide pseudo-user whose inventory fills
// market orders when no counterparty exists in the resting book.
const MarketMakerID UserID = 0

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusOpen      OrderStatus = "open"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
	// StatusPartial is declared for completeness but never assigned:
	// partially filled limit orders stay StatusOpen with FilledQuantity > 0.
	StatusPartial OrderStatus = "partial"
)

// Ticker identifies a trading symbol, e.g. "BTC-USD".
type Ticker string

// Symbol is an immutable trading-pair record. Identity is Ticker.
type Symbol struct {
	Ticker        Ticker
	DisplayName   string
	SeedPrice     decimal.Decimal
	MarketCapHint decimal.Decimal
}

// Balance is a user's holding of one asset. Uniqueness key is (UserID, Asset).
// A missing record is semantically equivalent to Amount=0, Locked=0.
type Balance struct {
	UserID UserID
	Asset  Ticker
	Amount decimal.Decimal
	Locked decimal.Decimal
}

// Available is the quantity free to reserve into a new order.
func (b Balance) Available() decimal.Decimal {
	return b.Amount.Sub(b.Locked)
}

// Order is a single buy or sell instruction against one symbol.
type Order struct {
	ID             string
	UserID         UserID
	Side           Side
	Symbol         Ticker
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	FilledQuantity decimal.Decimal
	Market         bool
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Remaining returns Quantity - FilledQuantity.
func (o Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Counterparty identifies one side of a trade. OrderID is empty exactly when
// IsMarketMaker is true: a tagged union in place of nullable buy/sell
// order-id columns.
type Counterparty struct {
	UserID        UserID
	OrderID       string // empty when IsMarketMaker is true
	IsMarketMaker bool
}

// Trade is an immutable executed-match record.
type Trade struct {
	ID         string
	Symbol     Ticker
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Buyer      Counterparty
	Seller     Counterparty
	ExecutedAt time.Time
}

// PriceSnapshot is the current-price table entry for one ticker.
type PriceSnapshot struct {
	Ticker        Ticker
	Price         decimal.Decimal
	PrevPrice     decimal.Decimal
	HasPrev       bool
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	MarketCap     decimal.Decimal
	UpdatedAt     time.Time
}
