package trader

import (
	"context"
	"errors"
	"time"

	"github.com/guyghost/deribit-trader/internal/deribit"
	"github.com/guyghost/deribit-trader/pkg/utils"
	"github.com/shopspring/decimal"
)

var errPlaceOrderRejected = errors.New("place order not accepted by transport")

// OnBookUpdate evaluates the spread-threshold quoting rule. It is invoked
// on the correlator's reader goroutine, so it must not block.
//
// The emptiness check and the decision to submit are bracketed by the
// same lock that guards admission of new open orders (via OnOrderOpen),
// so a duplicate quoting storm is structurally impossible: nothing else
// can observe or grow openOrders between the check and the submit.
func (t *Trader) OnBookUpdate(snapshot deribit.BookSnapshot, receivedAt time.Time) {
	bid, hasBid := snapshot.BestBid()
	ask, hasAsk := snapshot.BestAsk()
	if !hasBid || !hasAsk {
		return
	}

	spread := ask.Price.Sub(bid.Price)

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.openOrders) != 0 || !spread.GreaterThan(t.cfg.SpreadThreshold) {
		return
	}

	buyPrice := utils.RoundDecimal(bid.Price.Add(t.cfg.Edge), 1)
	sellPrice := utils.RoundDecimal(ask.Price.Sub(t.cfg.Edge), 1)

	t.placeGuarded(t.cfg.Instrument, "buy", buyPrice, t.cfg.Size, receivedAt)
	t.placeGuarded(t.cfg.Instrument, "sell", sellPrice, t.cfg.Size, receivedAt)
}

// placeGuarded routes order placement through a circuit breaker: if the
// transport has rejected several placements in a row, further attempts are
// skipped for the breaker's cooldown window instead of repeatedly trying
// to submit into a broken send path.
func (t *Trader) placeGuarded(instrument, side string, price, amount decimal.Decimal, triggerAt time.Time) {
	err := t.breaker.Execute(context.Background(), func() error {
		if !t.correlator.PlaceOrderTriggeredBy(instrument, side, price, amount, triggerAt) {
			return errPlaceOrderRejected
		}
		return nil
	})
	if err != nil {
		t.emit("place_order_skipped", map[string]any{"side": side, "reason": err.Error()})
	}
}
