package deribit

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/guyghost/deribit-trader/internal/eventlog"
	"github.com/guyghost/deribit-trader/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func nowForTest() time.Time { return time.Now() }

func newTestClient(t *testing.T) (*Client, *fakeTransport, *fakeSink, *bytes.Buffer) {
	t.Helper()
	transport := &fakeTransport{}
	sink := &fakeSink{}
	var logBuf bytes.Buffer
	events := eventlog.New(&logBuf)
	c := New(transport, "BTC-PERPETUAL", sink, events, logger.New(logger.DefaultConfig()))
	require.NoError(t, c.Connect(context.Background(), "wss://example.invalid/ws/api/v2", false))
	return c, transport, sink, &logBuf
}

func TestAuthSuccessStoresTokenAndAttachesItToFollowingRequests(t *testing.T) {
	c, transport, _, logBuf := newTestClient(t)

	require.True(t, c.Authenticate("id", "secret"))
	req := transport.lastSent()
	require.EqualValues(t, 1, req["id"])

	transport.deliver(`{"jsonrpc":"2.0","id":1,"result":{"access_token":"T"}}`)

	assert.Contains(t, logBuf.String(), `"auth_success"`)

	require.True(t, c.GetPositions("BTC"))
	positionsReq := transport.lastSent()
	params := positionsReq["params"].(map[string]any)
	assert.Equal(t, "T", params["access_token"])
}

func TestBookNotificationDeliversSnapshotToSink(t *testing.T) {
	c, transport, sink, _ := newTestClient(t)
	_ = c

	transport.deliver(`{"jsonrpc":"2.0","method":"subscription","params":{"channel":"book.BTC-PERPETUAL.raw","data":{"bids":[[100,1]],"asks":[[120,1]]}}}`)

	snapshot, ok := sink.lastBookUpdate()
	require.True(t, ok)
	bid, hasBid := snapshot.BestBid()
	ask, hasAsk := snapshot.BestAsk()
	require.True(t, hasBid)
	require.True(t, hasAsk)
	assert.True(t, ask.Price.GreaterThan(bid.Price))
}

func TestUnknownResponseIDIsUnsolicitedNotError(t *testing.T) {
	c, transport, _, logBuf := newTestClient(t)
	_ = c

	transport.deliver(`{"jsonrpc":"2.0","id":999,"result":{}}`)

	assert.Contains(t, logBuf.String(), `"unsolicited_response"`)
	assert.NotContains(t, logBuf.String(), `"event":"error"`)
}

func TestPendingEntryRemovedExactlyOnce(t *testing.T) {
	c, transport, _, _ := newTestClient(t)

	require.True(t, c.CancelOrder("X"))
	id := uint32(transport.lastSent()["id"].(float64))

	c.mu.Lock()
	_, stillPending := c.pending[id]
	c.mu.Unlock()
	require.True(t, stillPending)

	transport.deliver(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{}}`, id))

	c.mu.Lock()
	_, stillPending = c.pending[id]
	c.mu.Unlock()
	assert.False(t, stillPending)

	// A duplicate/late response for the same id is now unsolicited, not a
	// double removal.
	transport.deliver(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{}}`, id))
}

func TestOrderAckOpensOrderInSink(t *testing.T) {
	c, transport, sink, logBuf := newTestClient(t)

	require.True(t, c.PlaceOrder("BTC-PERPETUAL", "buy", decimalFromFloat(100.5), decimalFromFloat(10)))
	id := uint32(transport.lastSent()["id"].(float64))

	transport.deliver(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"order":{"order_id":"X","order_state":"open"}}}`, id))

	assert.Contains(t, logBuf.String(), `"order_ack"`)
	assert.Equal(t, []string{"X"}, sink.openedOrders())
}

func TestOrderResponseErrorEmitsErrorEventAndRemovesPending(t *testing.T) {
	c, transport, sink, logBuf := newTestClient(t)

	require.True(t, c.PlaceOrder("BTC-PERPETUAL", "buy", decimalFromFloat(100.5), decimalFromFloat(10)))
	id := uint32(transport.lastSent()["id"].(float64))

	transport.deliver(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":10009,"message":"not enough funds"}}`, id))

	assert.Contains(t, logBuf.String(), `"event":"error"`)
	assert.Empty(t, sink.openedOrders())

	c.mu.Lock()
	_, stillPending := c.pending[id]
	c.mu.Unlock()
	assert.False(t, stillPending)
}

func TestOrderClosedNotificationTriggersSinkOnTerminalStates(t *testing.T) {
	c, transport, sink, _ := newTestClient(t)
	_ = c

	transport.deliver(`{"jsonrpc":"2.0","method":"subscription","params":{"channel":"user.orders.BTC-PERPETUAL.raw","data":{"order_id":"X","order_state":"open"}}}`)
	assert.Empty(t, sink.closedOrders())

	transport.deliver(`{"jsonrpc":"2.0","method":"subscription","params":{"channel":"user.orders.BTC-PERPETUAL.raw","data":{"order_id":"X","order_state":"filled","filled_amount":10}}}`)
	assert.Equal(t, []string{"X"}, sink.closedOrders())
}

func TestBookMirrorInvariantsDescendingAscendingAndEpsilonFiltered(t *testing.T) {
	c, transport, sink, _ := newTestClient(t)
	_ = c

	transport.deliver(`{"jsonrpc":"2.0","method":"subscription","params":{"channel":"book.BTC-PERPETUAL.raw","data":{"bids":[[99,1],[101,0],[100,2]],"asks":[[105,1],[103,0],[104,3]]}}}`)

	snapshot, ok := sink.lastBookUpdate()
	require.True(t, ok)

	require.Len(t, snapshot.Bids, 2)
	assert.True(t, snapshot.Bids[0].Price.GreaterThan(snapshot.Bids[1].Price))

	require.Len(t, snapshot.Asks, 2)
	assert.True(t, snapshot.Asks[0].Price.LessThan(snapshot.Asks[1].Price))
}

func TestEmptyBookStillClearsMirror(t *testing.T) {
	c, transport, sink, _ := newTestClient(t)
	_ = c

	transport.deliver(`{"jsonrpc":"2.0","method":"subscription","params":{"channel":"book.BTC-PERPETUAL.raw","data":{"bids":[[100,1]],"asks":[[120,1]]}}}`)
	transport.deliver(`{"jsonrpc":"2.0","method":"subscription","params":{"channel":"book.BTC-PERPETUAL.raw","data":{"bids":[],"asks":[]}}}`)

	snapshot, ok := sink.lastBookUpdate()
	require.True(t, ok)
	_, hasBid := snapshot.BestBid()
	_, hasAsk := snapshot.BestAsk()
	assert.False(t, hasBid)
	assert.False(t, hasAsk)
}

func TestTradingLoopLatencyRecordedForTriggeredOrder(t *testing.T) {
	c, transport, _, logBuf := newTestClient(t)

	require.True(t, c.PlaceOrderTriggeredBy("BTC-PERPETUAL", "buy", decimalFromFloat(100.5), decimalFromFloat(10), nowForTest()))
	id := uint32(transport.lastSent()["id"].(float64))

	transport.deliver(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"order":{"order_id":"X","order_state":"open"}}}`, id))

	assert.Contains(t, logBuf.String(), `"trading_loop_latency_ms"`)
}
