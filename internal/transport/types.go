package transport

import (
	"time"

	"exchanged/internal/domain"
	"exchanged/internal/ledger"
)

// orderRequest is the JSON body for POST /api/orders.
type orderRequest struct {
	UserID   int64  `json:"user_id"`
	Side     string `json:"side"`
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Market   bool   `json:"market"`
}

// orderResponse is the JSON shape of an order returned to callers.
type orderResponse struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	Side           string    `json:"side"`
	Symbol         string    `json:"symbol"`
	Price          string    `json:"price"`
	Quantity       string    `json:"quantity"`
	FilledQuantity string    `json:"filled_quantity"`
	Market         bool      `json:"market"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		UserID:         int64(o.UserID),
		Side:           string(o.Side),
		Symbol:         string(o.Symbol),
		Price:          o.Price.String(),
		Quantity:       o.Quantity.String(),
		FilledQuantity: o.FilledQuantity.String(),
		Market:         o.Market,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// tradeResponse is the JSON shape of a trade returned to callers.
type tradeResponse struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Price      string    `json:"price"`
	Quantity   string    `json:"quantity"`
	BuyerID    int64     `json:"buyer_id"`
	SellerID   int64     `json:"seller_id"`
	ExecutedAt time.Time `json:"executed_at"`
}

func toTradeResponse(t domain.Trade) tradeResponse {
	return tradeResponse{
		ID:         t.ID,
		Symbol:     string(t.Symbol),
		Price:      t.Price.String(),
		Quantity:   t.Quantity.String(),
		BuyerID:    int64(t.Buyer.UserID),
		SellerID:   int64(t.Seller.UserID),
		ExecutedAt: t.ExecutedAt,
	}
}

// bookResponse is the JSON shape of GET /api/book.
type bookResponse struct {
	Buys       []orderResponse   `json:"buys"`
	Sells      []orderResponse   `json:"sells"`
	Pagination ledger.Pagination `json:"pagination"`
}

// priceTickEvent is the JSON envelope pushed over the /ws price feed.
type priceTickEvent struct {
	Type string                           `json:"type"`
	Data map[string]priceSnapshotResponse `json:"data"`
}

type priceSnapshotResponse struct {
	Ticker        string    `json:"ticker"`
	Price         string    `json:"price"`
	Change        string    `json:"change"`
	ChangePercent string    `json:"change_percent"`
	MarketCap     string    `json:"market_cap"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPriceTickEvent(snapshot map[domain.Ticker]domain.PriceSnapshot) priceTickEvent {
	data := make(map[string]priceSnapshotResponse, len(snapshot))
	for ticker, s := range snapshot {
		data[string(ticker)] = priceSnapshotResponse{
			Ticker:        string(s.Ticker),
			Price:         s.Price.String(),
			Change:        s.Change.String(),
			ChangePercent: s.ChangePercent.String(),
			MarketCap:     s.MarketCap.String(),
			UpdatedAt:     s.UpdatedAt,
		}
	}
	return priceTickEvent{Type: "price_tick", Data: data}
}

// errorResponse is the JSON shape of a failed request.
type errorResponse struct {
	Error string `json:"error"`
}
