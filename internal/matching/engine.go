// Package matching implements the matching engine, the single
// non-trivial algorithmic component of the exchange core. It validates an
// incoming order, atomically matches it against the resting book (or the
// market-maker account for market orders), records trades, and transfers
// balances — all under one serializable transaction per symbol.
//
// Concurrency model:
// one sync.Mutex per symbol, held for the whole PlaceOrder/CancelOrder body.
// No order submission ever touches two symbols' resting books, so a
// per-symbol lock gives the required serializability without a global lock
// across the whole engine. The ledger's BalanceStore/OrderStore/TradeStore
// each carry their own internal mutex purely to protect their map/slice
// structure from two different symbols' transactions running concurrently;
// that is a structural-safety lock, not the transaction boundary itself.
package matching

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/events"
	"exchanged/internal/ledger"
	"exchanged/internal/metrics"
	"exchanged/internal/money"
	"exchanged/internal/registry"
	"exchanged/internal/xerr"
)

// Engine is the transactional core that validates, matches, and settles
// orders one symbol at a time.
type Engine struct {
	registry    *registry.Registry
	balances    *ledger.BalanceStore
	orders      *ledger.OrderStore
	trades      *ledger.TradeStore
	events      events.Publisher
	logger      *slog.Logger
	marketMaker domain.UserID

	locksMu sync.Mutex
	locks   map[domain.Ticker]*sync.Mutex
}

// New wires a matching engine over the given registry and stores.
// marketMaker is the pseudo-account that fills market orders when no
// resting counterparty exists. publisher may be nil, in which case
// events.NoopPublisher is used.
func New(reg *registry.Registry, balances *ledger.BalanceStore, orders *ledger.OrderStore, trades *ledger.TradeStore, marketMaker domain.UserID, publisher events.Publisher, logger *slog.Logger) *Engine {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Engine{
		registry:    reg,
		balances:    balances,
		orders:      orders,
		trades:      trades,
		events:      publisher,
		logger:      logger.With("component", "matching"),
		marketMaker: marketMaker,
		locks:       make(map[domain.Ticker]*sync.Mutex),
	}
}

func (e *Engine) lockFor(symbol domain.Ticker) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	l, ok := e.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		e.locks[symbol] = l
	}
	return l
}

// PlaceOrder validates, inserts, and matches an incoming order, returning
// the final Order record.
func (e *Engine) PlaceOrder(user domain.UserID, side domain.Side, symbol domain.Ticker, price, quantity decimal.Decimal, market bool) (domain.Order, error) {
	start := time.Now()
	defer func() {
		metrics.MatchLatency.WithLabelValues(string(symbol)).Observe(time.Since(start).Seconds())
	}()

	if !e.registry.Exists(symbol) {
		metrics.OrdersRejected.WithLabelValues("unknown_symbol").Inc()
		return domain.Order{}, fmt.Errorf("matching: place order: %w", xerr.ErrUnknownSymbol)
	}
	if price.LessThanOrEqual(decimal.Zero) || quantity.LessThanOrEqual(decimal.Zero) {
		metrics.OrdersRejected.WithLabelValues("bad_request").Inc()
		return domain.Order{}, fmt.Errorf("matching: price and quantity must be positive: %w", xerr.ErrBadRequest)
	}

	price = money.RoundPrice(price)
	quantity = money.RoundQuantity(quantity)

	lock := e.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	kind := "limit"
	if market {
		kind = "market"
	}

	order := e.orders.Insert(domain.Order{
		UserID:   user,
		Side:     side,
		Symbol:   symbol,
		Price:    price,
		Quantity: quantity,
		Market:   market,
	})

	var result domain.Order
	var err error
	if market {
		result, err = e.matchMarket(order)
	} else {
		result, err = e.matchLimit(order)
	}

	if err != nil {
		// Roll back: the store is in-memory and has no durable log, so the
		// inserted order is marked cancelled rather than removed. It is never
		// visible as open or matchable, but Get and ListByUser still return
		// it with status cancelled. Reservation and reference-price failures
		// are detected before any trade is appended.
		_ = e.orders.UpdateStatus(order.ID, domain.StatusCancelled, decimal.Zero)
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return domain.Order{}, err
	}

	metrics.OrdersPlaced.WithLabelValues(string(side), kind).Inc()
	return result, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, xerr.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, xerr.ErrInsufficientMarketInventory):
		return "insufficient_market_inventory"
	case errors.Is(err, xerr.ErrUseMarketOrderInstead):
		return "use_market_order_instead"
	case errors.Is(err, xerr.ErrUnknownSymbol):
		return "unknown_symbol"
	default:
		return "internal"
	}
}

// matchMarket implements market-order protocol: fill entirely
// against the market-maker account at the price supplied on the request.
//
// The price used for the trade is the caller-supplied price, not a
// server-authoritative reference.
func (e *Engine) matchMarket(order domain.Order) (domain.Order, error) {
	if order.Side == domain.SideSell {
		if err := e.balances.Reserve(order.UserID, order.Symbol, order.Quantity); err != nil {
			return domain.Order{}, fmt.Errorf("matching: market sell: %w", err)
		}
		e.balances.Credit(e.marketMaker, order.Symbol, order.Quantity)

		trade := e.appendTrade(order.Symbol, order.Price, order.Quantity,
			domain.Counterparty{UserID: e.marketMaker, IsMarketMaker: true},
			domain.Counterparty{UserID: order.UserID, OrderID: order.ID},
		)
		e.publishTrade(trade)
	} else {
		if err := e.balances.Reserve(e.marketMaker, order.Symbol, order.Quantity); err != nil {
			return domain.Order{}, fmt.Errorf("matching: market buy: %w", xerr.ErrInsufficientMarketInventory)
		}
		e.balances.Credit(order.UserID, order.Symbol, order.Quantity)

		trade := e.appendTrade(order.Symbol, order.Price, order.Quantity,
			domain.Counterparty{UserID: order.UserID, OrderID: order.ID},
			domain.Counterparty{UserID: e.marketMaker, IsMarketMaker: true},
		)
		e.publishTrade(trade)
	}

	if err := e.orders.UpdateStatus(order.ID, domain.StatusFilled, order.Quantity); err != nil {
		return domain.Order{}, fmt.Errorf("matching: update order: %w", xerr.ErrInternal)
	}
	order.Status = domain.StatusFilled
	order.FilledQuantity = order.Quantity
	return order, nil
}

// fill is one leg of a planned match: a candidate resting order and the
// quantity it trades against the incoming order at its own (maker) price.
type fill struct {
	candidate domain.Order
	qty       decimal.Decimal
	buyer     domain.UserID
	seller    domain.UserID
	buyerRef  domain.Order
	sellerRef domain.Order
}

// matchLimit implements limit-order protocol: walk the resting book
// best-price-first then oldest-first, planning fills at each maker's price
// until the incoming order is fully filled or candidates are exhausted.
//
// The walk is two-phase: planFills only reads balances and never mutates a
// store, so a candidate further down the book that turns out to be
// under-funded aborts the whole order before anything has been written.
// Once every planned fill is known to be affordable, applyFills commits
// them — reserve, credit, trade, candidate status — in one pass that by
// construction cannot fail partway through.
func (e *Engine) matchLimit(order domain.Order) (domain.Order, error) {
	sym, err := e.registry.Get(order.Symbol)
	if err != nil {
		return domain.Order{}, fmt.Errorf("matching: %w", xerr.ErrUnknownSymbol)
	}
	if order.Price.Equal(money.RoundPrice(sym.SeedPrice)) {
		return domain.Order{}, fmt.Errorf("matching: limit price equals reference price: %w", xerr.ErrUseMarketOrderInstead)
	}

	candidates := e.orders.ListMatchable(order.Symbol, order.Side, order.Price)
	fills, filledQty, err := e.planFills(order, candidates)
	if err != nil {
		return domain.Order{}, err
	}

	order.FilledQuantity = filledQty
	e.applyFills(order.Symbol, fills)

	finalStatus := domain.StatusOpen
	if order.FilledQuantity.GreaterThanOrEqual(order.Quantity) {
		finalStatus = domain.StatusFilled
	}
	if err := e.orders.UpdateStatus(order.ID, finalStatus, order.FilledQuantity); err != nil {
		return domain.Order{}, fmt.Errorf("matching: update order: %w", xerr.ErrInternal)
	}
	order.Status = finalStatus
	return order, nil
}

// planFills walks candidates in priority order and decides how much of each
// to take, without touching the balance or order stores. It tracks each
// seller's running committed amount locally so that a seller resting two
// orders whose combined quantity exceeds their real balance is caught
// before either trade is applied, not after the first one lands. Returns
// the planned fills and the incoming order's resulting filled quantity.
func (e *Engine) planFills(order domain.Order, candidates []domain.Order) ([]fill, decimal.Decimal, error) {
	remaining := order.Quantity
	filled := order.FilledQuantity
	committed := make(map[domain.UserID]decimal.Decimal)
	var fills []fill

	for _, candidate := range candidates {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		available := candidate.Remaining()
		if available.LessThanOrEqual(decimal.Zero) {
			continue
		}

		qty := money.Min(remaining, available)

		var buyer, seller domain.UserID
		var buyerRef, sellerRef domain.Order
		if order.Side == domain.SideBuy {
			buyer, buyerRef = order.UserID, order
			seller, sellerRef = candidate.UserID, candidate
		} else {
			buyer, buyerRef = candidate.UserID, candidate
			seller, sellerRef = order.UserID, order
		}

		held := committed[seller]
		sellerBalance := e.balances.Get(seller, order.Symbol)
		if qty.GreaterThan(sellerBalance.Amount.Sub(held)) {
			return nil, decimal.Zero, fmt.Errorf("matching: limit match transfer: %w", xerr.ErrInsufficientBalance)
		}
		committed[seller] = held.Add(qty)

		fills = append(fills, fill{
			candidate: candidate,
			qty:       qty,
			buyer:     buyer,
			seller:    seller,
			buyerRef:  buyerRef,
			sellerRef: sellerRef,
		})

		filled = filled.Add(qty)
		remaining = remaining.Sub(qty)
	}

	return fills, filled, nil
}

// applyFills commits a validated plan: each Reserve is guaranteed to
// succeed because planFills already checked cumulative affordability per
// seller, so there is no partially-applied state to unwind here.
func (e *Engine) applyFills(symbol domain.Ticker, fills []fill) {
	for _, f := range fills {
		if err := e.balances.Reserve(f.seller, symbol, f.qty); err != nil {
			e.logger.Error("planned fill became unaffordable during apply", "seller", f.seller, "error", err)
			continue
		}
		e.balances.Credit(f.buyer, symbol, f.qty)

		trade := e.appendTrade(symbol, f.candidate.Price, f.qty,
			domain.Counterparty{UserID: f.buyer, OrderID: f.buyerRef.ID},
			domain.Counterparty{UserID: f.seller, OrderID: f.sellerRef.ID},
		)
		e.publishTrade(trade)

		candidateFilled := f.candidate.FilledQuantity.Add(f.qty)
		candidateStatus := domain.StatusOpen
		if candidateFilled.GreaterThanOrEqual(f.candidate.Quantity) {
			candidateStatus = domain.StatusFilled
		}
		if err := e.orders.UpdateStatus(f.candidate.ID, candidateStatus, candidateFilled); err != nil {
			e.logger.Error("failed to update candidate order after fill", "order_id", f.candidate.ID, "error", err)
		}
	}
}

func (e *Engine) appendTrade(symbol domain.Ticker, price, qty decimal.Decimal, buyer, seller domain.Counterparty) domain.Trade {
	t := e.trades.Append(domain.Trade{
		Symbol:   symbol,
		Price:    price,
		Quantity: qty,
		Buyer:    buyer,
		Seller:   seller,
	})
	metrics.TradesExecuted.WithLabelValues(string(symbol)).Inc()
	return t
}

func (e *Engine) publishTrade(t domain.Trade) {
	if err := e.events.PublishTrade(t); err != nil {
		e.logger.Warn("trade publish failed", "trade_id", t.ID, "error", err)
	}
}

// CancelOrder marks order as cancelled. Ownership is asserted; cancelling an
// already-cancelled or already-filled order is a no-op that returns the
// current terminal state. No balance refund is performed:
// the source matcher never pre-locks balance for resting limit orders, so
// there is nothing to release.
func (e *Engine) CancelOrder(user domain.UserID, orderID string) (domain.Order, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("matching: cancel: %w", xerr.ErrNotFound)
	}
	if order.UserID != user {
		return domain.Order{}, fmt.Errorf("matching: cancel: %w", xerr.ErrNotFound)
	}

	lock := e.lockFor(order.Symbol)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: another transaction may have filled the order
	// between Get above and acquiring the lock.
	order, err = e.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("matching: cancel: %w", xerr.ErrNotFound)
	}

	if order.Status == domain.StatusCancelled || order.Status == domain.StatusFilled {
		return order, nil
	}

	if err := e.orders.UpdateStatus(orderID, domain.StatusCancelled, order.FilledQuantity); err != nil {
		return domain.Order{}, fmt.Errorf("matching: cancel: %w", xerr.ErrInternal)
	}
	order.Status = domain.StatusCancelled
	return order, nil
}
