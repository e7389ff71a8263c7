package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceLevel is a single [price, size] pair as Deribit-style book and
// get_order_book payloads encode them.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// UnmarshalJSON decodes a [price, size] array, tolerating both numeric and
// string-encoded components (exchanges are inconsistent about this).
func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	var raw [2]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("price level: %w", err)
	}
	price, err := decimal.NewFromString(raw[0].String())
	if err != nil {
		return fmt.Errorf("price level price: %w", err)
	}
	size, err := decimal.NewFromString(raw[1].String())
	if err != nil {
		return fmt.Errorf("price level size: %w", err)
	}
	l.Price = price
	l.Size = size
	return nil
}

// SubscriptionParams is the params object of a "subscription" notification.
type SubscriptionParams struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// BookData is the payload of a book.* subscription notification, and the
// shape of a get_order_book response's result.
type BookData struct {
	TimestampMs *int64       `json:"timestamp,omitempty"`
	Bids        []PriceLevel `json:"bids"`
	Asks        []PriceLevel `json:"asks"`
}

// OrderUpdateData is the payload of a user.orders.* subscription
// notification.
type OrderUpdateData struct {
	OrderID       string           `json:"order_id"`
	OrderState    string           `json:"order_state"`
	FilledAmount  *decimal.Decimal `json:"filled_amount,omitempty"`
	Instrument    string           `json:"instrument_name,omitempty"`
}

// OrderInfo is the order sub-object of a private/buy, private/sell,
// private/cancel or private/edit response.
type OrderInfo struct {
	OrderID    string `json:"order_id"`
	OrderState string `json:"order_state"`
}

// OrderResult is the result object of an order response.
type OrderResult struct {
	Order OrderInfo `json:"order"`
}

// AuthResult is the result object of a successful public/auth response.
type AuthResult struct {
	AccessToken string `json:"access_token"`
}

// PositionInfo is a single element of a private/get_positions response.
type PositionInfo struct {
	Instrument   string          `json:"instrument_name"`
	Size         decimal.Decimal `json:"size"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// DecodeSubscriptionParams parses the params object of a subscription
// notification. Malformed JSON or a wrongly typed field is surfaced as an
// error so the caller can emit a parse_error event and drop the message;
// missing fields are left at their zero values.
func DecodeSubscriptionParams(raw json.RawMessage) (SubscriptionParams, error) {
	var p SubscriptionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return SubscriptionParams{}, err
	}
	return p, nil
}

// DecodeBookData parses a book.* notification's data object or a
// get_order_book result object — both share the bids/asks shape.
func DecodeBookData(raw json.RawMessage) (BookData, error) {
	var b BookData
	if err := json.Unmarshal(raw, &b); err != nil {
		return BookData{}, err
	}
	return b, nil
}

// DecodeOrderUpdateData parses a user.orders.* notification's data object.
func DecodeOrderUpdateData(raw json.RawMessage) (OrderUpdateData, error) {
	var d OrderUpdateData
	if err := json.Unmarshal(raw, &d); err != nil {
		return OrderUpdateData{}, err
	}
	return d, nil
}

// DecodeOrderResult parses the result object of an order/cancel/edit
// response.
func DecodeOrderResult(raw json.RawMessage) (OrderResult, error) {
	var r OrderResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return OrderResult{}, err
	}
	return r, nil
}

// DecodeAuthResult parses the result object of a public/auth response.
func DecodeAuthResult(raw json.RawMessage) (AuthResult, error) {
	var r AuthResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return AuthResult{}, err
	}
	return r, nil
}

// DecodePositions parses the result array of a private/get_positions
// response.
func DecodePositions(raw json.RawMessage) ([]PositionInfo, error) {
	var positions []PositionInfo
	if err := json.Unmarshal(raw, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}
