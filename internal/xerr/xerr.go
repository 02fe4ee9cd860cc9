// Package xerr defines the sentinel error taxonomy shared by every component
// of the exchange core. Call sites wrap a sentinel with
// fmt.Errorf("...: %w", xerr.Sentinel) so errors.Is keeps working across
// package boundaries.
package xerr

import "errors"

var (
	// ErrBadRequest covers malformed input: non-positive price/quantity,
	// unknown filter values. Never retried internally.
	ErrBadRequest = errors.New("bad request")

	// ErrUnknownSymbol means the ticker is not in the registry.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInsufficientBalance means a reservation against a user's balance
	// failed because the available amount was too small.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientMarketInventory means a market buy failed because the
	// market-maker account lacked sufficient inventory to fill it.
	ErrInsufficientMarketInventory = errors.New("insufficient market-maker inventory")

	// ErrUseMarketOrderInstead is returned when a limit price equals the
	// symbol's current seed reference price.
	ErrUseMarketOrderInstead = errors.New("limit price equals reference price, use a market order instead")

	// ErrNotFound covers an absent order/resource, or one not owned by the
	// caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a serializable transaction that failed to commit due to
	// contention. Callers may retry a bounded number of times.
	ErrConflict = errors.New("conflict")

	// ErrInternal is an unexpected failure in a store or the event
	// publisher.
	ErrInternal = errors.New("internal error")
)
