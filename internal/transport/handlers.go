package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/ledger"
	"exchanged/internal/matching"
	"exchanged/internal/query"
	"exchanged/internal/xerr"
)

// Handlers holds all HTTP handler dependencies. It is an illustrative REST
// shim over the matching core and query surface.
type Handlers struct {
	engine  *matching.Engine
	query   *query.Surface
	balance *ledger.BalanceStore
	logger  *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(engine *matching.Engine, surface *query.Surface, balances *ledger.BalanceStore, logger *slog.Logger) *Handlers {
	return &Handlers{
		engine:  engine,
		query:   surface,
		balance: balances,
		logger:  logger.With("component", "transport-handlers"),
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandlePlaceOrder handles POST /api/orders.
func (h *Handlers) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("transport: decode order request: %w", xerr.ErrBadRequest))
		return
	}

	side := domain.Side(req.Side)
	if side != domain.SideBuy && side != domain.SideSell {
		writeError(w, fmt.Errorf("transport: side must be buy or sell: %w", xerr.ErrBadRequest))
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, fmt.Errorf("transport: invalid price: %w", xerr.ErrBadRequest))
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeError(w, fmt.Errorf("transport: invalid quantity: %w", xerr.ErrBadRequest))
		return
	}

	order, err := h.engine.PlaceOrder(domain.UserID(req.UserID), side, domain.Ticker(req.Symbol), price, quantity, req.Market)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderResponse(order))
}

// HandleCancelOrder handles DELETE /api/orders/{id}?user_id=N.
func (h *Handlers) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("transport: user_id is required: %w", xerr.ErrBadRequest))
		return
	}

	order, err := h.engine.CancelOrder(domain.UserID(userID), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderResponse(order))
}

// HandleBook handles GET /api/book?symbol=BTC-USD&page=1&limit=50.
func (h *Handlers) HandleBook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var symbol *domain.Ticker
	if s := q.Get("symbol"); s != "" {
		t := domain.Ticker(s)
		symbol = &t
	}
	page, limit := pageAndLimit(q)

	result := h.query.GetBook(symbol, page, limit)

	resp := bookResponse{
		Buys:       make([]orderResponse, 0, len(result.Buys)),
		Sells:      make([]orderResponse, 0, len(result.Sells)),
		Pagination: result.Pagination,
	}
	for _, o := range result.Buys {
		resp.Buys = append(resp.Buys, toOrderResponse(o))
	}
	for _, o := range result.Sells {
		resp.Sells = append(resp.Sells, toOrderResponse(o))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleUserOrders handles GET /api/users/{id}/orders.
func (h *Handlers) HandleUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("transport: invalid user id: %w", xerr.ErrBadRequest))
		return
	}

	q := r.URL.Query()
	var symbol *domain.Ticker
	if s := q.Get("symbol"); s != "" {
		t := domain.Ticker(s)
		symbol = &t
	}
	var side *domain.Side
	if s := q.Get("side"); s != "" {
		sd := domain.Side(s)
		side = &sd
	}
	var status *domain.OrderStatus
	if s := q.Get("status"); s != "" {
		st := domain.OrderStatus(s)
		status = &st
	}
	page, limit := pageAndLimit(q)

	result := h.query.GetUserOrders(domain.UserID(userID), symbol, side, status, page, limit)

	resp := struct {
		Orders     []orderResponse   `json:"orders"`
		Pagination ledger.Pagination `json:"pagination"`
	}{
		Orders:     make([]orderResponse, 0, len(result.Orders)),
		Pagination: result.Pagination,
	}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleTrades handles GET /api/trades?user_id=N (user_id optional).
func (h *Handlers) HandleTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var userID *domain.UserID
	if s := q.Get("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, fmt.Errorf("transport: invalid user_id: %w", xerr.ErrBadRequest))
			return
		}
		u := domain.UserID(id)
		userID = &u
	}
	page, limit := pageAndLimit(q)

	result := h.query.GetTrades(userID, page, limit)

	resp := struct {
		Trades     []tradeResponse   `json:"trades"`
		Pagination ledger.Pagination `json:"pagination"`
	}{
		Trades:     make([]tradeResponse, 0, len(result.Trades)),
		Pagination: result.Pagination,
	}
	for _, t := range result.Trades {
		resp.Trades = append(resp.Trades, toTradeResponse(t))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleUserBalances handles GET /api/users/{id}/balances.
func (h *Handlers) HandleUserBalances(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("transport: invalid user id: %w", xerr.ErrBadRequest))
		return
	}

	rows := h.balance.Snapshot(domain.UserID(userID))
	type balanceResponse struct {
		Asset     string `json:"asset"`
		Amount    string `json:"amount"`
		Available string `json:"available"`
	}
	resp := make([]balanceResponse, 0, len(rows))
	for _, b := range rows {
		resp = append(resp, balanceResponse{
			Asset:     string(b.Asset),
			Amount:    b.Amount.String(),
			Available: b.Available().String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func pageAndLimit(q map[string][]string) (int, int) {
	page, limit := 1, 50
	if v, ok := q["page"]; ok && len(v) > 0 {
		if p, err := strconv.Atoi(v[0]); err == nil {
			page = p
		}
	}
	if v, ok := q["limit"]; ok && len(v) > 0 {
		if l, err := strconv.Atoi(v[0]); err == nil {
			limit = l
		}
	}
	return page, limit
}
