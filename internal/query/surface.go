// Package query implements the read-only, paginated views over the order and
// trade stores: public order book snapshot, per-user order
// list, per-user trade history.
package query

import (
	"exchanged/internal/domain"
	"exchanged/internal/ledger"
)

// Surface is the read-only query layer. It never mutates the stores it
// wraps and never participates in a matching-engine transaction.
type Surface struct {
	orders *ledger.OrderStore
	trades *ledger.TradeStore
}

// New wires a query surface over the given order and trade stores.
func New(orders *ledger.OrderStore, trades *ledger.TradeStore) *Surface {
	return &Surface{orders: orders, trades: trades}
}

// BookResult is the public order-book view for GetBook.
type BookResult struct {
	Buys       []domain.Order
	Sells      []domain.Order
	Pagination ledger.Pagination
}

// GetBook returns open buys (price desc) and open sells (price asc),
// optionally filtered by symbol. buys[] and sells[] are two separate arrays
// per, each paginated with the same (page, limit) window.
func (s *Surface) GetBook(symbol *domain.Ticker, page, limit int) BookResult {
	buys, sells := s.orders.ListBook(symbol)

	pagedBuys, buyPage := ledger.Paginate(buys, page, limit)
	pagedSells, sellPage := ledger.Paginate(sells, page, limit)

	// Buys and sells can have different total counts; report the larger
	// side's totals so callers see the true extent of the book.
	combined := buyPage
	if sellPage.TotalItems > buyPage.TotalItems {
		combined = sellPage
	}

	return BookResult{Buys: pagedBuys, Sells: pagedSells, Pagination: combined}
}

// UserOrdersResult is the per-user order list view.
type UserOrdersResult struct {
	Orders     []domain.Order
	Pagination ledger.Pagination
}

// GetUserOrders returns user's orders, most-recent first, optionally
// filtered by symbol/side/status.
func (s *Surface) GetUserOrders(user domain.UserID, symbol *domain.Ticker, side *domain.Side, status *domain.OrderStatus, page, limit int) UserOrdersResult {
	orders := s.orders.ListByUser(user, symbol, side, status)
	paged, pagination := ledger.Paginate(orders, page, limit)
	return UserOrdersResult{Orders: paged, Pagination: pagination}
}

// TradesResult is the trade-history view.
type TradesResult struct {
	Trades     []domain.Trade
	Pagination ledger.Pagination
}

// GetTrades returns trades, most-recent first. If user is non-nil, only
// trades where user is buyer or seller are returned; otherwise the full
// venue-wide trade log is returned.
func (s *Surface) GetTrades(user *domain.UserID, page, limit int) TradesResult {
	var trades []domain.Trade
	if user != nil {
		trades = s.trades.ListForUser(*user)
	} else {
		trades = s.trades.ListAll()
	}
	paged, pagination := ledger.Paginate(trades, page, limit)
	return TradesResult{Trades: paged, Pagination: pagination}
}
