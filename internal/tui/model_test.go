package tui

import (
	"testing"

	"github.com/guyghost/deribit-trader/internal/jsonrpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeCorrelator struct {
	connected                            bool
	bid, ask                             *jsonrpc.PriceLevel
	bids, asks                           []jsonrpc.PriceLevel
	requestMs, propagationMs, processMs  float64
	positions                            []jsonrpc.PositionInfo
}

func (f *fakeCorrelator) Connected() bool { return f.connected }
func (f *fakeCorrelator) BestBidAsk() (*jsonrpc.PriceLevel, *jsonrpc.PriceLevel) {
	return f.bid, f.ask
}
func (f *fakeCorrelator) BookLevels() ([]jsonrpc.PriceLevel, []jsonrpc.PriceLevel) {
	return f.bids, f.asks
}
func (f *fakeCorrelator) LatencySnapshot() (float64, float64, float64) {
	return f.requestMs, f.propagationMs, f.processMs
}
func (f *fakeCorrelator) Positions() []jsonrpc.PositionInfo { return f.positions }

type fakeOrderTracker struct{ ids []string }

func (f *fakeOrderTracker) OpenOrderIDs() []string { return f.ids }

func level(price, size float64) jsonrpc.PriceLevel {
	return jsonrpc.PriceLevel{Price: decimal.NewFromFloat(price), Size: decimal.NewFromFloat(size)}
}

func TestRefreshPullsLatestSnapshot(t *testing.T) {
	bid := level(100, 1)
	ask := level(101, 1)
	correlator := &fakeCorrelator{connected: true, bid: &bid, ask: &ask, requestMs: 5, propagationMs: 2, processMs: 1}
	orders := &fakeOrderTracker{ids: []string{"a", "b"}}

	m := NewModel(correlator, orders, "BTC-PERPETUAL")
	m.refresh()

	assert.True(t, m.connected)
	assert.Equal(t, []string{"a", "b"}, m.openOrders)
	assert.Equal(t, 5.0, m.requestMs)
}

func TestRefreshLogsOpenOrderCountChanges(t *testing.T) {
	correlator := &fakeCorrelator{}
	orders := &fakeOrderTracker{}

	m := NewModel(correlator, orders, "BTC-PERPETUAL")
	m.refresh()
	assert.Empty(t, m.messages)

	orders.ids = []string{"x"}
	m.refresh()
	assert.Len(t, m.messages, 1)
}

func TestViewRendersLoadingBeforeFirstResize(t *testing.T) {
	m := NewModel(&fakeCorrelator{}, &fakeOrderTracker{}, "BTC-PERPETUAL")
	assert.Equal(t, "Loading...", m.View())
}

func TestViewRendersInstrumentAfterResize(t *testing.T) {
	m := NewModel(&fakeCorrelator{}, &fakeOrderTracker{}, "BTC-PERPETUAL")
	m.width, m.height = 120, 40
	assert.Contains(t, m.View(), "BTC-PERPETUAL")
}
