package trader

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type placedOrder struct {
	instrument string
	side       string
	price      decimal.Decimal
	amount     decimal.Decimal
	triggerAt  time.Time
}

// fakeCorrelator stands in for deribit.Client so the strategy and
// lifecycle logic can be tested without a real transport or wire codec.
type fakeCorrelator struct {
	mu                sync.Mutex
	subscribedPublic  []string
	subscribedPrivate []string
	placed            []placedOrder
	cancelled         []string
	positionsReq      []string
	bookReq           []string
	rejectPlace       bool
	placeAttempts     int
}

func (f *fakeCorrelator) SubscribePublic(channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribedPublic = append(f.subscribedPublic, channel)
	return true
}

func (f *fakeCorrelator) SubscribePrivate(channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribedPrivate = append(f.subscribedPrivate, channel)
	return true
}

func (f *fakeCorrelator) PlaceOrderTriggeredBy(instrument, side string, price, amount decimal.Decimal, triggerAt time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeAttempts++
	if f.rejectPlace {
		return false
	}
	f.placed = append(f.placed, placedOrder{instrument, side, price, amount, triggerAt})
	return true
}

func (f *fakeCorrelator) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placeAttempts
}

func (f *fakeCorrelator) CancelOrder(orderID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	return true
}

func (f *fakeCorrelator) GetOrderBook(instrument string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookReq = append(f.bookReq, instrument)
	return true
}

func (f *fakeCorrelator) GetPositions(currency string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positionsReq = append(f.positionsReq, currency)
	return true
}

func (f *fakeCorrelator) placedOrders() []placedOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]placedOrder, len(f.placed))
	copy(out, f.placed)
	return out
}

func (f *fakeCorrelator) cancelledOrders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cancelled))
	copy(out, f.cancelled)
	return out
}
