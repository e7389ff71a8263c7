package deribit

import (
	"time"

	"github.com/guyghost/deribit-trader/internal/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Authenticate issues public/auth with client-credentials grant. The
// returned bool indicates only that the envelope was handed to the
// transport, not that authentication succeeded — watch for auth_success /
// auth_failed events.
func (c *Client) Authenticate(clientID, clientSecret string) bool {
	params := map[string]any{
		"grant_type":    "client_credentials",
		"client_id":     clientID,
		"client_secret": clientSecret,
	}
	return c.issue(KindAuth, "public/auth", params, false, time.Time{})
}

// SubscribePublic subscribes to a public channel (e.g. a book.* feed).
func (c *Client) SubscribePublic(channel string) bool {
	params := map[string]any{"channels": []string{channel}}
	return c.issue(KindSubscribe, "public/subscribe", params, false, time.Time{})
}

// SubscribePrivate subscribes to a private channel (e.g. user.orders.*),
// attaching the session token once authenticated.
func (c *Client) SubscribePrivate(channel string) bool {
	params := map[string]any{"channels": []string{channel}}
	return c.issue(KindSubscribe, "private/subscribe", params, true, time.Time{})
}

// PlaceOrder submits a limit order. side must be "buy" or "sell".
func (c *Client) PlaceOrder(instrument, side string, price, amount decimal.Decimal) bool {
	return c.placeOrder(instrument, side, price, amount, time.Time{})
}

// PlaceOrderTriggeredBy is PlaceOrder's variant for an order submitted in
// direct reaction to a book update at triggerAt: the correlator reports
// trading_loop_latency_ms alongside latency_ms on the matching order_ack.
func (c *Client) PlaceOrderTriggeredBy(instrument, side string, price, amount decimal.Decimal, triggerAt time.Time) bool {
	return c.placeOrder(instrument, side, price, amount, triggerAt)
}

func (c *Client) placeOrder(instrument, side string, price, amount decimal.Decimal, triggerAt time.Time) bool {
	method := "private/buy"
	if side == "sell" {
		method = "private/sell"
	}
	params := map[string]any{
		"instrument_name": instrument,
		"amount":          amount,
		"type":            "limit",
		"price":           price,
		"label":           uuid.NewString(),
	}
	ok := c.issue(KindOrder, method, params, true, triggerAt)
	if ok {
		telemetry.RecordOrderPlaced(side)
	}
	return ok
}

// CancelOrder cancels a previously placed order.
func (c *Client) CancelOrder(orderID string) bool {
	params := map[string]any{"order_id": orderID}
	ok := c.issue(KindCancel, "private/cancel", params, true, time.Time{})
	if ok {
		telemetry.RecordOrderCancelled()
	}
	return ok
}

// EditOrder amends the price and amount of an outstanding order.
func (c *Client) EditOrder(orderID string, price, amount decimal.Decimal) bool {
	params := map[string]any{
		"order_id": orderID,
		"amount":   amount,
		"price":    price,
		"label":    uuid.NewString(),
	}
	return c.issue(KindEdit, "private/edit", params, true, time.Time{})
}

// GetOrderBook requests a full order-book snapshot at the given depth,
// defaulting to 10 when depth is not positive.
func (c *Client) GetOrderBook(instrument string, depth int) bool {
	if depth <= 0 {
		depth = 10
	}
	params := map[string]any{
		"instrument_name": instrument,
		"depth":           depth,
	}
	return c.issue(KindGetBook, "public/get_order_book", params, false, time.Time{})
}

// GetPositions requests the current positions for a currency.
func (c *Client) GetPositions(currency string) bool {
	params := map[string]any{"currency": currency}
	return c.issue(KindGetPositions, "private/get_positions", params, true, time.Time{})
}
