package trader

import "time"

// OnOrderOpen admits an order into the open set once the correlator
// confirms order_state == "open". Orders placed but never acknowledged
// open never enter the set.
func (t *Trader) OnOrderOpen(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openOrders = append(t.openOrders, openOrder{id: orderID, openedAt: time.Now()})
}

// OnOrderClosed removes any entry with the given id. It is a no-op if the
// stale-order canceller already removed it.
func (t *Trader) OnOrderClosed(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.openOrders[:0]
	for _, o := range t.openOrders {
		if o.id != orderID {
			kept = append(kept, o)
		}
	}
	t.openOrders = kept
}

func (t *Trader) staleOrderLoop() {
	ticker := time.NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.cancelStaleOrders()
		}
	}
}

// cancelStaleOrders partitions open orders under the lock, then issues
// cancel_order for each stale id outside the lock — cancel_order's wire
// send must never run while holding the orders lock.
func (t *Trader) cancelStaleOrders() {
	now := time.Now()

	t.mu.Lock()
	var toCancel []string
	kept := t.openOrders[:0]
	for _, o := range t.openOrders {
		if now.Sub(o.openedAt) >= t.cfg.StaleTimeout {
			toCancel = append(toCancel, o.id)
		} else {
			kept = append(kept, o)
		}
	}
	t.openOrders = kept
	t.mu.Unlock()

	for _, id := range toCancel {
		t.correlator.CancelOrder(id)
	}
}
