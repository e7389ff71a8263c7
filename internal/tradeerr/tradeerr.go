// Package tradeerr provides a typed error taxonomy for the trading client:
// each error carries the operation, its target and the underlying cause.
package tradeerr

import (
	"errors"
	"fmt"
)

// Operation identifies the stage of the pipeline that produced an error.
type Operation string

const (
	OperationConnect      Operation = "connect"
	OperationHandshake    Operation = "handshake"
	OperationAuth         Operation = "authenticate"
	OperationSubscribe    Operation = "subscribe"
	OperationPlaceOrder   Operation = "place_order"
	OperationCancelOrder  Operation = "cancel_order"
	OperationEditOrder    Operation = "edit_order"
	OperationGetBook      Operation = "get_order_book"
	OperationGetPositions Operation = "get_positions"
	OperationDecode       Operation = "decode"
	OperationSend         Operation = "send"
)

// TradingError carries the operation and target (instrument, order id, ...)
// alongside the underlying cause.
type TradingError struct {
	Op     Operation
	Target string
	Err    error
}

func (e *TradingError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TradingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New wraps err with operation/target context. Returns nil if err is nil.
// If err is already a *TradingError it is returned unchanged.
func New(op Operation, target string, err error) error {
	if err == nil {
		return nil
	}
	var te *TradingError
	if errors.As(err, &te) {
		return err
	}
	return &TradingError{Op: op, Target: target, Err: err}
}
