// Package ledger holds the three in-memory stores: balance, order, and
// trade. All mutating operations are called from inside the matching
// engine's per-symbol transaction (internal/matching); the stores
// themselves only guard the map/slice structures against concurrent access
// from different symbols' transactions running at the same time, not
// against two transactions racing on the same symbol — that serialization
// is the matching engine's job.
package ledger

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/xerr"
)

type balanceKey struct {
	user  domain.UserID
	asset domain.Ticker
}

// BalanceStore maps (user_id, asset) -> Balance. A missing row is
// semantically amount=0, locked=0; rows are created implicitly on first
// credit.
type BalanceStore struct {
	mu   sync.Mutex
	rows map[balanceKey]*domain.Balance
}

// NewBalanceStore creates an empty balance store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{rows: make(map[balanceKey]*domain.Balance)}
}

func (s *BalanceStore) row(user domain.UserID, asset domain.Ticker) *domain.Balance {
	k := balanceKey{user, asset}
	b, ok := s.rows[k]
	if !ok {
		b = &domain.Balance{UserID: user, Asset: asset}
		s.rows[k] = b
	}
	return b
}

// Reserve decrements amount by qty if qty <= amount, else fails with
// ErrInsufficientBalance. Callers may re-wrap the returned error so the
// matcher can surface InsufficientBalance vs InsufficientMarketInventory.
func (s *BalanceStore) Reserve(user domain.UserID, asset domain.Ticker, qty decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.row(user, asset)
	if qty.GreaterThan(b.Amount) {
		return fmt.Errorf("ledger: reserve %s %s for user %d: %w", qty, asset, user, xerr.ErrInsufficientBalance)
	}
	b.Amount = b.Amount.Sub(qty)
	return nil
}

// Credit increments amount by qty, creating the row if absent.
func (s *BalanceStore) Credit(user domain.UserID, asset domain.Ticker, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.row(user, asset)
	b.Amount = b.Amount.Add(qty)
}

// Snapshot returns a copy of every balance row for user. Does not
// participate in matcher transactions.
func (s *BalanceStore) Snapshot(user domain.UserID) []domain.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Balance, 0)
	for k, b := range s.rows {
		if k.user == user {
			out = append(out, *b)
		}
	}
	return out
}

// Get returns a single balance row (or the zero-value equivalent if absent).
func (s *BalanceStore) Get(user domain.UserID, asset domain.Ticker) domain.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.rows[balanceKey{user, asset}]; ok {
		return *b
	}
	return domain.Balance{UserID: user, Asset: asset}
}
