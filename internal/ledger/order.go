package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/xerr"
)

// OrderStore maps order id -> Order, plus a per-owner index for
// ListByUser. ListMatchable and ListBook scan every order and filter.
type OrderStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.Order
	byOwner map[domain.UserID][]string // insertion order per user
}

// NewOrderStore creates an empty order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		byID:    make(map[string]*domain.Order),
		byOwner: make(map[domain.UserID][]string),
	}
}

// Insert assigns an id and CreatedAt, sets status=open, filled_quantity=0,
// and stores the order.
func (s *OrderStore) Insert(o domain.Order) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	o.ID = uuid.NewString()
	o.Status = domain.StatusOpen
	o.FilledQuantity = decimal.Zero
	o.CreatedAt = now
	o.UpdatedAt = now

	s.byID[o.ID] = &o
	s.byOwner[o.UserID] = append(s.byOwner[o.UserID], o.ID)
	return o
}

// Get returns the order by id.
func (s *OrderStore) Get(id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("ledger: order %s: %w", id, xerr.ErrNotFound)
	}
	return *o, nil
}

// UpdateStatus sets status and filled_quantity. Mutations are monotonic with
// respect to filled_quantity by contract of the caller (the matching
// engine never decreases it).
func (s *OrderStore) UpdateStatus(id string, status domain.OrderStatus, filled decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("ledger: order %s: %w", id, xerr.ErrNotFound)
	}
	o.Status = status
	o.FilledQuantity = filled
	o.UpdatedAt = time.Now()
	return nil
}

// ListMatchable returns open orders on symbol's opposite side eligible to
// trade against a limit order at limitPrice, ordered best-price-first then
// oldest-first.
//
//   - Caller is a buy:  opposite side is sell, eligible when price <= limitPrice,
//     ordered ascending price (lowest ask first), ties broken by CreatedAt asc.
//   - Caller is a sell: opposite side is buy,  eligible when price >= limitPrice,
//     ordered descending price (highest bid first), ties broken by CreatedAt asc.
func (s *OrderStore) ListMatchable(symbol domain.Ticker, takerSide domain.Side, limitPrice decimal.Decimal) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	oppositeSide := takerSide.Opposite()
	var candidates []domain.Order
	for _, o := range s.byID {
		if o.Symbol != symbol || o.Side != oppositeSide || o.Status != domain.StatusOpen {
			continue
		}
		if takerSide == domain.SideBuy && o.Price.GreaterThan(limitPrice) {
			continue
		}
		if takerSide == domain.SideSell && o.Price.LessThan(limitPrice) {
			continue
		}
		candidates = append(candidates, *o)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.Price.Equal(b.Price) {
			if takerSide == domain.SideBuy {
				return a.Price.LessThan(b.Price) // lowest ask first
			}
			return a.Price.GreaterThan(b.Price) // highest bid first
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return candidates
}

// ListByUser returns a user's orders, optionally filtered by symbol/side/
// status, most-recent first. Pagination is left to the caller.
func (s *OrderStore) ListByUser(user domain.UserID, symbol *domain.Ticker, side *domain.Side, status *domain.OrderStatus) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byOwner[user]
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		o := s.byID[id]
		if symbol != nil && o.Symbol != *symbol {
			continue
		}
		if side != nil && o.Side != *side {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListBook returns every open order for symbol (or every symbol if nil),
// split by side. Buys are returned price-descending, sells price-ascending.
func (s *OrderStore) ListBook(symbol *domain.Ticker) (buys, sells []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.byID {
		if o.Status != domain.StatusOpen {
			continue
		}
		if symbol != nil && o.Symbol != *symbol {
			continue
		}
		if o.Side == domain.SideBuy {
			buys = append(buys, *o)
		} else {
			sells = append(sells, *o)
		}
	}
	sort.Slice(buys, func(i, j int) bool {
		if !buys[i].Price.Equal(buys[j].Price) {
			return buys[i].Price.GreaterThan(buys[j].Price)
		}
		return buys[i].CreatedAt.Before(buys[j].CreatedAt)
	})
	sort.Slice(sells, func(i, j int) bool {
		if !sells[i].Price.Equal(sells[j].Price) {
			return sells[i].Price.LessThan(sells[j].Price)
		}
		return sells[i].CreatedAt.Before(sells[j].CreatedAt)
	})
	return buys, sells
}
