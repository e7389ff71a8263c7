// Package deribit implements the JSON-RPC request/response correlator for
// the exchange: it issues requests over a WebSocket transport, tracks
// pending requests by id, routes inbound responses and subscription
// notifications, maintains the session token, the local book mirror and
// the positions vector, and computes latency telemetry.
package deribit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guyghost/deribit-trader/internal/eventlog"
	"github.com/guyghost/deribit-trader/internal/jsonrpc"
	"github.com/guyghost/deribit-trader/internal/logger"
	"github.com/guyghost/deribit-trader/internal/ratelimit"
	"github.com/guyghost/deribit-trader/internal/telemetry"
	"github.com/guyghost/deribit-trader/internal/tradeerr"
	"github.com/guyghost/deribit-trader/internal/wsclient"
)

// Deribit's published matching-engine limits are tighter on trading
// endpoints than on market-data ones; these buckets are sized for a
// single API key on the default (non-VIP) tier. They throttle the
// client's own outbound rate rather than reacting to 429s.
const (
	tradingRateLimit    = 5.0
	tradingBurst        = 10
	marketDataRateLimit = 20.0
	marketDataBurst     = 40
)

// Kind identifies the type of a pending request, used to dispatch its
// matching response.
type Kind string

const (
	KindAuth         Kind = "Auth"
	KindSubscribe    Kind = "Subscribe"
	KindOrder        Kind = "Order"
	KindCancel       Kind = "Cancel"
	KindEdit         Kind = "Edit"
	KindGetBook      Kind = "GetBook"
	KindGetPositions Kind = "GetPositions"
)

// Transport is the narrow surface the correlator needs from a WebSocket
// client. wsclient.Client satisfies it; tests substitute a fake.
type Transport interface {
	SetMessageHandler(wsclient.Handler)
	Connect(ctx context.Context, rawURL string, insecureSkipVerify bool) error
	Send(text string) bool
	Close() error
	IsRunning() bool
}

// Sink is the one-way notification interface the Trader registers to learn
// about book updates and order lifecycle events. The Client holds a
// non-owning reference; there is no reverse pointer back from Sink to
// Client, avoiding the mutual-ownership cycle a naive design invites.
type Sink interface {
	OnBookUpdate(snapshot BookSnapshot, receivedAt time.Time)
	OnOrderOpen(orderID string)
	OnOrderClosed(orderID string)
}

type pendingRequest struct {
	Kind      Kind
	SentAt    time.Time
	TriggerAt time.Time // zero unless the request was issued in reaction to a book update
}

type session struct {
	accessToken   string
	authenticated bool
}

// Client is the API correlator: it owns the session token, the pending
// request table, the book mirror and the positions vector.
type Client struct {
	transport Transport
	events    *eventlog.Sink
	log       *logger.Logger
	instrument string

	nextID atomic.Uint32

	mu       sync.Mutex
	pending  map[uint32]pendingRequest
	session  session
	bids     []jsonrpc.PriceLevel
	asks     []jsonrpc.PriceLevel
	positions []jsonrpc.PositionInfo
	latency  latencySnapshot

	connected atomic.Bool
	sink      Sink

	limiter *ratelimit.MultiLimiter
}

// latencySnapshot holds the most recently observed values of the three
// latency series the correlator computes, for status-view consumption.
type latencySnapshot struct {
	RequestMs     float64
	PropagationMs float64
	ProcessMs     float64
}

// New constructs a Client bound to transport and instrument, emitting
// telemetry to events. sink receives book and order-lifecycle
// notifications; pass nil and call SetSink later if the Sink's
// constructor needs a reference to this Client.
func New(transport Transport, instrument string, sink Sink, events *eventlog.Sink, log *logger.Logger) *Client {
	limiter := ratelimit.NewMultiLimiter()
	limiter.AddLimiter("trading", ratelimit.NewTokenBucket(tradingRateLimit, tradingBurst))
	limiter.AddLimiter("market_data", ratelimit.NewTokenBucket(marketDataRateLimit, marketDataBurst))

	c := &Client{
		transport:  transport,
		instrument: instrument,
		sink:       sink,
		events:     events,
		log:        log,
		pending:    make(map[uint32]pendingRequest),
		limiter:    limiter,
	}
	c.transport.SetMessageHandler(c.onMessage)
	return c
}

// SetSink replaces the registered Sink. Callers that must construct the
// Sink from a reference to this Client (the Trader needs a Correlator)
// pass nil to New and call SetSink once the Sink exists.
func (c *Client) SetSink(sink Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

func (c *Client) sinkRef() Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}

// Connect dials the exchange and starts the transport's reader loop.
func (c *Client) Connect(ctx context.Context, url string, insecureSkipVerify bool) error {
	if err := c.transport.Connect(ctx, url, insecureSkipVerify); err != nil {
		wrapped := tradeerr.New(tradeerr.OperationConnect, url, err)
		c.log.Transport(map[string]any{"event": "connect_failed", "error": wrapped.Error()})
		return wrapped
	}
	c.connected.Store(true)
	c.log.Transport(map[string]any{"event": "connected", "url": url})
	return nil
}

// Close tears down the transport.
func (c *Client) Close() error {
	c.connected.Store(false)
	return c.transport.Close()
}

// Connected reports whether the transport is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// LatencySnapshot returns the most recent request/propagation/process
// latencies in milliseconds, for status-view consumption.
func (c *Client) LatencySnapshot() (requestMs, propagationMs, processMs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency.RequestMs, c.latency.PropagationMs, c.latency.ProcessMs
}

func (c *Client) nextRequestID() uint32 {
	return c.nextID.Add(1)
}

func (c *Client) emit(event string, fields map[string]any) {
	if c.events == nil {
		return
	}
	if err := c.events.Emit(event, fields); err != nil {
		c.log.Transport(map[string]any{"event": "eventlog_write_failed", "error": err.Error()})
	}
}

// accessToken returns the stored session token, or "" if not yet
// authenticated.
func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.accessToken
}

// BestBidAsk returns copies of the current top-of-book, if present.
func (c *Client) BestBidAsk() (bid *jsonrpc.PriceLevel, ask *jsonrpc.PriceLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bids) > 0 {
		b := c.bids[0]
		bid = &b
	}
	if len(c.asks) > 0 {
		a := c.asks[0]
		ask = &a
	}
	return bid, ask
}

// BookLevels returns copies of the full bid/ask mirror, descending and
// ascending respectively.
func (c *Client) BookLevels() (bids, asks []jsonrpc.PriceLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyLevels(c.bids), copyLevels(c.asks)
}

// Positions returns a copy of the current positions vector.
func (c *Client) Positions() []jsonrpc.PositionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]jsonrpc.PositionInfo, len(c.positions))
	copy(out, c.positions)
	return out
}

func (c *Client) issue(kind Kind, method string, params map[string]any, private bool, triggerAt time.Time) bool {
	bucket := rateLimitBucket(kind)
	if !c.limiter.Allow(bucket) {
		telemetry.RecordRateLimited(bucket)
		c.emit("rate_limited", map[string]any{"kind": string(kind), "bucket": bucket})
		return false
	}

	if private {
		if token := c.accessToken(); token != "" {
			params["access_token"] = token
		}
	}

	id := c.nextRequestID()
	c.mu.Lock()
	c.pending[id] = pendingRequest{Kind: kind, SentAt: time.Now(), TriggerAt: triggerAt}
	c.mu.Unlock()

	req := jsonrpc.NewRequest(id, method, params)
	payload, err := req.Marshal()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		wrapped := tradeerr.New(operationForKind(kind), method, err)
		c.emit("error", map[string]any{"kind": string(kind), "error": wrapped.Error()})
		return false
	}

	if ok := c.transport.Send(string(payload)); !ok {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return false
	}
	return true
}

// rateLimitBucket assigns a Kind to the rate-limit bucket whose quota
// mirrors which matching-engine queue the exchange applies it to.
func rateLimitBucket(kind Kind) string {
	switch kind {
	case KindOrder, KindCancel, KindEdit:
		return "trading"
	default:
		return "market_data"
	}
}

func operationForKind(kind Kind) tradeerr.Operation {
	switch kind {
	case KindAuth:
		return tradeerr.OperationAuth
	case KindSubscribe:
		return tradeerr.OperationSubscribe
	case KindOrder:
		return tradeerr.OperationPlaceOrder
	case KindCancel:
		return tradeerr.OperationCancelOrder
	case KindEdit:
		return tradeerr.OperationEditOrder
	case KindGetBook:
		return tradeerr.OperationGetBook
	case KindGetPositions:
		return tradeerr.OperationGetPositions
	default:
		return tradeerr.OperationSend
	}
}
