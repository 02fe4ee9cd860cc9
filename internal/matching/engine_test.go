package matching

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/ledger"
	"exchanged/internal/registry"
	"exchanged/internal/xerr"
)

func newTestEngine(t *testing.T) (*Engine, *ledger.BalanceStore, *ledger.OrderStore) {
	t.Helper()
	reg := registry.New([]domain.Symbol{
		{Ticker: "BTC-USD", DisplayName: "Bitcoin", SeedPrice: decimal.NewFromFloat(64321.55)},
	})
	balances := ledger.NewBalanceStore()
	orders := ledger.NewOrderStore()
	trades := ledger.NewTradeStore()
	logger := slog.New(slog.NewTextHandler(testDiscard{}, nil))
	engine := New(reg, balances, orders, trades, domain.MarketMakerID, nil, logger)
	return engine, balances, orders
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlaceOrder_ExactMatch(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("10"))

	sell, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	buy, err := engine.PlaceOrder(userB, domain.SideBuy, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	// The sell rested before the buy arrived, so re-fetch it to see the fill.
	sellNow, err := engine.orders.Get(sell.ID)
	if err != nil {
		t.Fatalf("get sell: %v", err)
	}
	if sellNow.Status != domain.StatusFilled || !sellNow.FilledQuantity.Equal(dec("1")) {
		t.Fatalf("sell order not filled: %+v", sellNow)
	}
	if buy.Status != domain.StatusFilled || !buy.FilledQuantity.Equal(dec("1")) {
		t.Fatalf("buy order not filled: %+v", buy)
	}
	if got := balances.Get(userA, "BTC-USD").Amount; !got.Equal(dec("9")) {
		t.Fatalf("seller balance = %s, want 9", got)
	}
	if got := balances.Get(userB, "BTC-USD").Amount; !got.Equal(dec("1")) {
		t.Fatalf("buyer balance = %s, want 1", got)
	}
}

func TestPlaceOrder_PartialFill(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("10"))

	sell, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("5"), false)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	buy, err := engine.PlaceOrder(userB, domain.SideBuy, "BTC-USD", dec("50000"), dec("3"), false)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	if buy.Status != domain.StatusFilled || !buy.FilledQuantity.Equal(dec("3")) {
		t.Fatalf("buy order = %+v", buy)
	}
	if sell.Status == domain.StatusFilled {
		t.Fatalf("sell order should still be open before re-fetch")
	}

	sellNow, err := engine.orders.Get(sell.ID)
	if err != nil {
		t.Fatalf("get sell: %v", err)
	}
	if sellNow.Status != domain.StatusOpen || !sellNow.FilledQuantity.Equal(dec("3")) {
		t.Fatalf("sell order after partial fill = %+v", sellNow)
	}
	if got := balances.Get(userA, "BTC-USD").Amount; !got.Equal(dec("7")) {
		t.Fatalf("seller balance = %s, want 7", got)
	}
	if got := balances.Get(userB, "BTC-USD").Amount; !got.Equal(dec("3")) {
		t.Fatalf("buyer balance = %s, want 3", got)
	}
}

func TestPlaceOrder_NoMatchAtDifferentPrices(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("10"))

	sell, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	buy, err := engine.PlaceOrder(userB, domain.SideBuy, "BTC-USD", dec("49000"), dec("1"), false)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	if sell.Status != domain.StatusOpen || !sell.FilledQuantity.IsZero() {
		t.Fatalf("sell order = %+v", sell)
	}
	if buy.Status != domain.StatusOpen || !buy.FilledQuantity.IsZero() {
		t.Fatalf("buy order = %+v", buy)
	}
}

func TestPlaceOrder_MarketBuyAgainstMarketMaker(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	balances.Credit(domain.MarketMakerID, "BTC-USD", dec("10"))
	const userC = domain.UserID(3)

	buy, err := engine.PlaceOrder(userC, domain.SideBuy, "BTC-USD", dec("50000"), dec("2"), true)
	if err != nil {
		t.Fatalf("market buy: %v", err)
	}
	if buy.Status != domain.StatusFilled {
		t.Fatalf("market buy order = %+v", buy)
	}
	if got := balances.Get(domain.MarketMakerID, "BTC-USD").Amount; !got.Equal(dec("8")) {
		t.Fatalf("market maker balance = %s, want 8", got)
	}
	if got := balances.Get(userC, "BTC-USD").Amount; !got.Equal(dec("2")) {
		t.Fatalf("buyer balance = %s, want 2", got)
	}
}

func TestPlaceOrder_MultiCandidatePricePriority(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("10"))

	cheap, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("2"), false)
	if err != nil {
		t.Fatalf("cheap sell: %v", err)
	}
	pricey, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("51000"), dec("2"), false)
	if err != nil {
		t.Fatalf("pricey sell: %v", err)
	}

	buy, err := engine.PlaceOrder(userB, domain.SideBuy, "BTC-USD", dec("50000"), dec("2"), false)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if buy.Status != domain.StatusFilled {
		t.Fatalf("buy order = %+v", buy)
	}

	cheapNow, _ := engine.orders.Get(cheap.ID)
	priceyNow, _ := engine.orders.Get(pricey.ID)
	if cheapNow.Status != domain.StatusFilled {
		t.Fatalf("cheap sell should be filled: %+v", cheapNow)
	}
	if priceyNow.Status != domain.StatusOpen || !priceyNow.FilledQuantity.IsZero() {
		t.Fatalf("pricey sell should be untouched: %+v", priceyNow)
	}
}

// Resting orders are never balance-checked at placement: an
// insufficient-balance sell only fails once it actually crosses a resting
// buy. This test places a resting buy first so the sell has a counterparty
// to cross, then checks the reserve failure aborts cleanly with nothing
// applied.
func TestPlaceOrder_InsufficientBalance(t *testing.T) {
	t.Parallel()
	engine, balances, orders := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("0.5"))
	balances.Credit(userB, "BTC-USD", dec("10"))

	buy, err := engine.PlaceOrder(userB, domain.SideBuy, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("resting buy: %v", err)
	}

	_, err = engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if !errors.Is(err, xerr.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want InsufficientBalance", err)
	}
	if got := balances.Get(userA, "BTC-USD").Amount; !got.Equal(dec("0.5")) {
		t.Fatalf("seller balance changed after failed order: %s", got)
	}
	if got := balances.Get(userB, "BTC-USD").Amount; !got.Equal(dec("10")) {
		t.Fatalf("buyer balance changed after failed order: %s", got)
	}

	buyNow, _ := orders.Get(buy.ID)
	if buyNow.Status != domain.StatusOpen || !buyNow.FilledQuantity.IsZero() {
		t.Fatalf("resting buy should be untouched by the aborted cross: %+v", buyNow)
	}

	sellerOrders := orders.ListByUser(userA, nil, nil, nil)
	for _, o := range sellerOrders {
		if o.Status != domain.StatusCancelled {
			t.Fatalf("sell order should have been rolled back to cancelled, got %+v", o)
		}
	}
}

// TestPlaceOrder_MultiCandidateInsufficientBalance reproduces the scenario
// where one user rests two sell orders whose combined quantity exceeds
// their real balance. A single incoming buy large enough to cross both
// must not partially apply the first leg before discovering the second is
// unaffordable: either every planned trade lands, or none do.
func TestPlaceOrder_MultiCandidateInsufficientBalance(t *testing.T) {
	t.Parallel()
	engine, balances, orders := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("1")) // only enough for one of the two resting sells
	balances.Credit(userB, "BTC-USD", dec("10"))

	sell1, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("sell1: %v", err)
	}
	sell2, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("sell2: %v", err)
	}

	_, err = engine.PlaceOrder(userB, domain.SideBuy, "BTC-USD", dec("50000"), dec("2"), false)
	if !errors.Is(err, xerr.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want InsufficientBalance", err)
	}

	if got := balances.Get(userA, "BTC-USD").Amount; !got.Equal(dec("1")) {
		t.Fatalf("seller balance moved despite aborted walk: %s", got)
	}
	if got := balances.Get(userB, "BTC-USD").Amount; !got.Equal(dec("10")) {
		t.Fatalf("buyer balance moved despite aborted walk: %s", got)
	}

	sell1Now, _ := orders.Get(sell1.ID)
	sell2Now, _ := orders.Get(sell2.ID)
	if sell1Now.Status != domain.StatusOpen || !sell1Now.FilledQuantity.IsZero() {
		t.Fatalf("sell1 should be untouched (no partial fill from the aborted walk): %+v", sell1Now)
	}
	if sell2Now.Status != domain.StatusOpen || !sell2Now.FilledQuantity.IsZero() {
		t.Fatalf("sell2 should be untouched: %+v", sell2Now)
	}
}

func TestPlaceOrder_MarketBuyInsufficientInventory(t *testing.T) {
	t.Parallel()
	engine, _, _ := newTestEngine(t)

	const userC = domain.UserID(3)
	_, err := engine.PlaceOrder(userC, domain.SideBuy, "BTC-USD", dec("50000"), dec("1"), true)
	if !errors.Is(err, xerr.ErrInsufficientMarketInventory) {
		t.Fatalf("err = %v, want InsufficientMarketInventory", err)
	}
}

func TestPlaceOrder_LimitAtReferencePriceRejected(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	const userA = domain.UserID(1)
	balances.Credit(userA, "BTC-USD", dec("10"))

	_, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("64321.55"), dec("1"), false)
	if !errors.Is(err, xerr.ErrUseMarketOrderInstead) {
		t.Fatalf("err = %v, want UseMarketOrderInstead", err)
	}
}

func TestCancelOrder_IdempotentAndEmptiesBook(t *testing.T) {
	t.Parallel()
	engine, balances, orders := newTestEngine(t)

	const userA = domain.UserID(1)
	balances.Credit(userA, "BTC-USD", dec("10"))

	order, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	cancelled, err := engine.CancelOrder(userA, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("order not cancelled: %+v", cancelled)
	}

	again, err := engine.CancelOrder(userA, order.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if again.Status != domain.StatusCancelled {
		t.Fatalf("second cancel result = %+v", again)
	}

	buys, sells := orders.ListBook(nil)
	if len(buys) != 0 || len(sells) != 0 {
		t.Fatalf("book not empty after cancelling all orders: buys=%d sells=%d", len(buys), len(sells))
	}
}

func TestCancelOrder_WrongOwnerNotFound(t *testing.T) {
	t.Parallel()
	engine, balances, _ := newTestEngine(t)

	const userA, userB = domain.UserID(1), domain.UserID(2)
	balances.Credit(userA, "BTC-USD", dec("10"))

	order, err := engine.PlaceOrder(userA, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	_, err = engine.CancelOrder(userB, order.ID)
	if !errors.Is(err, xerr.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestPlaceOrder_UnknownSymbol(t *testing.T) {
	t.Parallel()
	engine, _, _ := newTestEngine(t)

	_, err := engine.PlaceOrder(domain.UserID(1), domain.SideBuy, "DOGE-USD", dec("1"), dec("1"), false)
	if !errors.Is(err, xerr.ErrUnknownSymbol) {
		t.Fatalf("err = %v, want UnknownSymbol", err)
	}
}

func TestPlaceOrder_BadRequest(t *testing.T) {
	t.Parallel()
	engine, _, _ := newTestEngine(t)

	_, err := engine.PlaceOrder(domain.UserID(1), domain.SideBuy, "BTC-USD", dec("0"), dec("1"), false)
	if !errors.Is(err, xerr.ErrBadRequest) {
		t.Fatalf("err = %v, want BadRequest", err)
	}
}

func TestPlaceOrder_ConcurrentSameSymbol(t *testing.T) {
	engine, balances, orders := newTestEngine(t)

	const seller = domain.UserID(1)
	balances.Credit(seller, "BTC-USD", dec("100"))

	const workers = 20
	done := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		buyer := domain.UserID(100 + i)
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = engine.PlaceOrder(seller, domain.SideSell, "BTC-USD", dec("50000"), dec("1"), false)
			_, _ = engine.PlaceOrder(buyer, domain.SideBuy, "BTC-USD", dec("50000"), dec("1"), false)
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	if got := balances.Get(seller, "BTC-USD").Amount; got.LessThan(decimal.Zero) {
		t.Fatalf("seller balance went negative: %s", got)
	}

	var filledBuyers int
	for i := 0; i < workers; i++ {
		buyer := domain.UserID(100 + i)
		if !balances.Get(buyer, "BTC-USD").Amount.IsZero() {
			filledBuyers++
		}
	}
	// Every buyer order races a matching seller order submitted just before
	// it in the same goroutine, so every buyer should end up with exactly
	// one BTC-USD credited, regardless of submission interleaving across
	// goroutines (the per-symbol lock serializes all of them).
	if filledBuyers != workers {
		t.Fatalf("filled buyers = %d, want %d", filledBuyers, workers)
	}

	all := orders.ListByUser(seller, nil, nil, nil)
	var totalFilled decimal.Decimal
	for _, o := range all {
		totalFilled = totalFilled.Add(o.FilledQuantity)
	}
	if !totalFilled.Equal(decimal.NewFromInt(workers)) {
		t.Fatalf("seller total filled = %s, want %d", totalFilled, workers)
	}
}
