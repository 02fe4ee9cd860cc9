package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"exchanged/internal/domain"
)

// TradeStore is an append-only log of executed trades, indexed by
// participant for user-scoped history queries. Records are
// never modified once appended.
type TradeStore struct {
	mu     sync.Mutex
	all    []domain.Trade
	byUser map[domain.UserID][]int // indexes into all, per participant
}

// NewTradeStore creates an empty trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{byUser: make(map[domain.UserID][]int)}
}

// Append assigns an id and ExecutedAt, writes the record, and indexes it by
// buyer and seller.
func (s *TradeStore) Append(t domain.Trade) domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	t.ExecutedAt = time.Now()

	idx := len(s.all)
	s.all = append(s.all, t)
	s.byUser[t.Buyer.UserID] = append(s.byUser[t.Buyer.UserID], idx)
	if t.Seller.UserID != t.Buyer.UserID {
		s.byUser[t.Seller.UserID] = append(s.byUser[t.Seller.UserID], idx)
	}
	return t
}

// ListForUser returns every trade where user is buyer or seller, newest
// first.
func (s *TradeStore) ListForUser(user domain.UserID) []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	idxs := s.byUser[user]
	out := make([]domain.Trade, len(idxs))
	for i, idx := range idxs {
		out[i] = s.all[idx]
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.After(out[j].ExecutedAt) })
	return out
}

// ListAll returns every trade, newest first.
func (s *TradeStore) ListAll() []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Trade, len(s.all))
	copy(out, s.all)
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.After(out[j].ExecutedAt) })
	return out
}
