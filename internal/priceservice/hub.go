package priceservice

import (
	"log/slog"
	"sync"

	"exchanged/internal/domain"
	"exchanged/internal/metrics"
)

// Snapshot is the full current-price table delivered to a subscriber on
// subscribe and on each tick.
type Snapshot map[domain.Ticker]domain.PriceSnapshot

// Subscriber is a consumer of the price channel. Delivery is best-effort:
// a snapshot still pending when the next one arrives is dropped and
// replaced by the newer one.
type Subscriber struct {
	ch chan Snapshot
}

// Recv returns the subscriber's delivery channel.
func (s *Subscriber) Recv() <-chan Snapshot {
	return s.ch
}

// Hub manages the set of live subscribers to the price channel. Each
// subscriber's channel is buffered to exactly one slot and uses
// drop-and-replace semantics instead of close-on-full, so a slow consumer
// never blocks the price service and never accumulates a
// backlog of stale snapshots.
type Hub struct {
	mu      sync.RWMutex
	members map[*Subscriber]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty subscription hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		members: make(map[*Subscriber]struct{}),
		logger:  logger.With("component", "price-hub"),
	}
}

// Subscribe adds a new subscriber and synchronously delivers current as its
// first snapshot.
func (h *Hub) Subscribe(current Snapshot) *Subscriber {
	sub := &Subscriber{ch: make(chan Snapshot, 1)}

	h.mu.Lock()
	h.members[sub] = struct{}{}
	count := len(h.members)
	h.mu.Unlock()

	metrics.Subscribers.Set(float64(count))
	deliver(sub, current)
	return sub
}

// Unsubscribe removes sub from the member set and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.members[sub]
	delete(h.members, sub)
	count := len(h.members)
	h.mu.Unlock()

	if ok {
		close(sub.ch)
	}
	metrics.Subscribers.Set(float64(count))
}

// Broadcast delivers snapshot to every current subscriber. Enumerates a
// consistent snapshot of members under a read lock, then delivers outside
// the lock so a slow subscriber can't hold up Subscribe/Unsubscribe calls.
func (h *Hub) Broadcast(snapshot Snapshot) {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.members))
	for sub := range h.members {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		deliver(sub, snapshot)
	}
}

// deliver writes snapshot to sub's channel, dropping a stale pending
// snapshot first if the channel is already full, so at most one snapshot is
// ever in flight per subscriber and a slow reader only ever sees the
// latest price, never a growing backlog.
func deliver(sub *Subscriber, snapshot Snapshot) {
	select {
	case sub.ch <- snapshot:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}
