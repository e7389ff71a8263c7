package deribit

import (
	"strings"
	"time"

	"github.com/guyghost/deribit-trader/internal/jsonrpc"
	"github.com/guyghost/deribit-trader/internal/telemetry"
)

// onMessage is the transport's message handler. It runs on the single
// reader goroutine; routing and strategy callbacks it triggers are
// therefore never concurrent with each other.
func (c *Client) onMessage(raw string) {
	env, err := jsonrpc.Parse(raw)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error()})
		return
	}

	switch {
	case env.IsNotification():
		c.handleNotification(env)
	case env.IsResponse():
		c.handleResponse(env)
	default:
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": "envelope has neither id nor subscription method"})
	}
}

func (c *Client) handleNotification(env jsonrpc.Envelope) {
	params, err := jsonrpc.DecodeSubscriptionParams(env.Params)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error()})
		return
	}

	switch {
	case strings.HasPrefix(params.Channel, "book."):
		c.handleBookNotification(params)
	case strings.HasPrefix(params.Channel, "user.orders"):
		c.handleOrderNotification(params)
	}
}

func (c *Client) handleBookNotification(params jsonrpc.SubscriptionParams) {
	receivedAt := time.Now()

	data, err := jsonrpc.DecodeBookData(params.Data)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error(), "channel": params.Channel})
		return
	}

	bids := sanitizeBids(data.Bids)
	asks := sanitizeAsks(data.Asks)

	c.mu.Lock()
	c.bids = bids
	c.asks = asks
	c.mu.Unlock()

	snapshot := BookSnapshot{
		Instrument:  c.instrument,
		Bids:        copyLevels(bids),
		Asks:        copyLevels(asks),
		TimestampMs: data.TimestampMs,
	}

	fields := map[string]any{"channel": params.Channel}
	if data.TimestampMs != nil {
		propagationMs := float64(receivedAt.UnixMilli() - *data.TimestampMs)
		fields["propagation_ms"] = propagationMs
		telemetry.RecordPropagationLatency(propagationMs)
		c.mu.Lock()
		c.latency.PropagationMs = propagationMs
		c.mu.Unlock()
	}

	if sink := c.sinkRef(); sink != nil {
		sink.OnBookUpdate(snapshot, receivedAt)
	}

	processMs := float64(time.Since(receivedAt).Milliseconds())
	fields["process_ms"] = processMs
	telemetry.RecordProcessLatency(processMs)
	c.mu.Lock()
	c.latency.ProcessMs = processMs
	c.mu.Unlock()
	c.emit("market_update", fields)
}

func (c *Client) handleOrderNotification(params jsonrpc.SubscriptionParams) {
	data, err := jsonrpc.DecodeOrderUpdateData(params.Data)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error(), "channel": params.Channel})
		return
	}

	fields := map[string]any{"order_id": data.OrderID, "order_state": data.OrderState}
	if data.FilledAmount != nil {
		fields["filled_amount"] = data.FilledAmount.String()
	}
	c.emit("order_update", fields)

	switch data.OrderState {
	case "filled", "cancelled", "rejected":
		if sink := c.sinkRef(); sink != nil {
			sink.OnOrderClosed(data.OrderID)
		}
	}
}

func (c *Client) handleResponse(env jsonrpc.Envelope) {
	id := *env.ID

	c.mu.Lock()
	pr, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.emit("unsolicited_response", map[string]any{"id": id})
		return
	}

	if env.Error != nil {
		c.emit("error", map[string]any{
			"kind":    string(pr.Kind),
			"code":    env.Error.Code,
			"message": env.Error.Message,
		})
		return
	}

	latencyMs := float64(time.Since(pr.SentAt).Milliseconds())
	telemetry.RecordRequestLatency(string(pr.Kind), latencyMs)
	c.mu.Lock()
	c.latency.RequestMs = latencyMs
	c.mu.Unlock()

	switch pr.Kind {
	case KindAuth:
		c.handleAuthResponse(env, latencyMs)
	case KindOrder:
		c.handleOrderResponse(env, pr, latencyMs)
	case KindCancel:
		c.emit("cancel_ack", map[string]any{"latency_ms": latencyMs})
	case KindEdit:
		c.emit("edit_ack", map[string]any{"latency_ms": latencyMs})
	case KindSubscribe:
		c.emit("subscribe_ack", map[string]any{"latency_ms": latencyMs})
	case KindGetBook:
		c.handleGetBookResponse(env, latencyMs)
	case KindGetPositions:
		c.handleGetPositionsResponse(env, latencyMs)
	}
}

func (c *Client) handleAuthResponse(env jsonrpc.Envelope, latencyMs float64) {
	result, err := jsonrpc.DecodeAuthResult(env.Result)
	if err != nil || result.AccessToken == "" {
		telemetry.RecordAuthFailure()
		c.emit("auth_failed", map[string]any{"latency_ms": latencyMs})
		return
	}
	c.mu.Lock()
	c.session.accessToken = result.AccessToken
	c.session.authenticated = true
	c.mu.Unlock()
	c.emit("auth_success", map[string]any{"latency_ms": latencyMs})
}

func (c *Client) handleOrderResponse(env jsonrpc.Envelope, pr pendingRequest, latencyMs float64) {
	result, err := jsonrpc.DecodeOrderResult(env.Result)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error(), "kind": string(pr.Kind)})
		return
	}

	fields := map[string]any{
		"order_id":    result.Order.OrderID,
		"order_state": result.Order.OrderState,
		"latency_ms":  latencyMs,
	}
	if !pr.TriggerAt.IsZero() {
		tradingLoopMs := float64(time.Since(pr.TriggerAt).Milliseconds())
		fields["trading_loop_latency_ms"] = tradingLoopMs
		telemetry.RecordTradingLoopLatency(tradingLoopMs)
	}
	c.emit("order_ack", fields)

	if sink := c.sinkRef(); result.Order.OrderState == "open" && sink != nil {
		sink.OnOrderOpen(result.Order.OrderID)
	}
}

func (c *Client) handleGetBookResponse(env jsonrpc.Envelope, latencyMs float64) {
	data, err := jsonrpc.DecodeBookData(env.Result)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error(), "kind": string(KindGetBook)})
		return
	}
	c.mu.Lock()
	c.bids = sanitizeBids(data.Bids)
	c.asks = sanitizeAsks(data.Asks)
	c.mu.Unlock()
	c.emit("order_book_snapshot", map[string]any{"latency_ms": latencyMs})
}

func (c *Client) handleGetPositionsResponse(env jsonrpc.Envelope, latencyMs float64) {
	positions, err := jsonrpc.DecodePositions(env.Result)
	if err != nil {
		telemetry.RecordParseError()
		c.emit("parse_error", map[string]any{"error": err.Error(), "kind": string(KindGetPositions)})
		return
	}
	c.mu.Lock()
	c.positions = positions
	c.mu.Unlock()
	c.emit("positions_snapshot", map[string]any{"latency_ms": latencyMs})
}
