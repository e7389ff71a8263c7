// Package trader implements the market-making controller: it subscribes
// to the book and order channels, evaluates a spread-threshold quoting
// rule on every book update, tracks its own open orders, and cancels
// orders that have sat open past a timeout.
package trader

import (
	"fmt"
	"sync"
	"time"

	"github.com/guyghost/deribit-trader/internal/circuitbreaker"
	"github.com/guyghost/deribit-trader/internal/eventlog"
	"github.com/guyghost/deribit-trader/internal/logger"
	"github.com/shopspring/decimal"
)

// Correlator is the narrow surface the Trader needs from the API
// correlator. deribit.Client satisfies it; tests substitute a fake.
type Correlator interface {
	SubscribePublic(channel string) bool
	SubscribePrivate(channel string) bool
	PlaceOrderTriggeredBy(instrument, side string, price, amount decimal.Decimal, triggerAt time.Time) bool
	CancelOrder(orderID string) bool
	GetOrderBook(instrument string, depth int) bool
	GetPositions(currency string) bool
}

// Config carries the overridable strategy constants (spread threshold,
// quoting edge, order size, stale timeout) plus the channel-shape knobs
// needed to select between the raw and grouped/interval-limited book
// feeds.
type Config struct {
	Instrument string
	Currency   string

	// BookChannel overrides the public book channel; empty selects the
	// raw feed "book.<instrument>.raw". A non-empty value lets a caller
	// select the grouped/interval-limited variant instead.
	BookChannel string

	SpreadThreshold decimal.Decimal
	Edge            decimal.Decimal
	Size            decimal.Decimal
	StaleTimeout    time.Duration
	TickInterval    time.Duration
}

type openOrder struct {
	id       string
	openedAt time.Time
}

// Trader is the market-making controller. It implements deribit.Sink.
type Trader struct {
	correlator Correlator
	events     *eventlog.Sink
	log        *logger.Logger
	cfg        Config
	breaker    *circuitbreaker.CircuitBreaker

	mu         sync.Mutex
	openOrders []openOrder
	running    bool
	done       chan struct{}
}

// New constructs a Trader. cfg.SpreadThreshold/Edge/Size/StaleTimeout/
// TickInterval must already be resolved by the caller (internal/config
// applies the documented defaults).
func New(correlator Correlator, cfg Config, events *eventlog.Sink, log *logger.Logger) *Trader {
	if cfg.Currency == "" {
		cfg.Currency = "BTC"
	}
	breaker := circuitbreaker.New("order-placement", &circuitbreaker.Config{
		MaxFailures: 3,
		Timeout:     10 * time.Second,
	})
	return &Trader{
		correlator: correlator,
		events:     events,
		log:        log,
		cfg:        cfg,
		breaker:    breaker,
	}
}

// emit records an operational event to the event log, if one is attached.
func (t *Trader) emit(event string, fields map[string]any) {
	if t.events == nil {
		return
	}
	if err := t.events.Emit(event, fields); err != nil {
		t.log.Transport(map[string]any{"event": "eventlog_write_failed", "error": err.Error()})
	}
}

// bookChannel resolves the configured book channel, defaulting to the raw
// feed for the configured instrument.
func (t *Trader) bookChannel() string {
	if t.cfg.BookChannel != "" {
		return t.cfg.BookChannel
	}
	return fmt.Sprintf("book.%s.raw", t.cfg.Instrument)
}

// Start subscribes to the public and private channels, requests the
// current positions and order book, and spawns the stale-order ticker.
func (t *Trader) Start() {
	t.mu.Lock()
	t.running = true
	t.done = make(chan struct{})
	t.mu.Unlock()

	t.correlator.SubscribePublic(t.bookChannel())
	t.correlator.SubscribePrivate(fmt.Sprintf("user.orders.%s.raw", t.cfg.Instrument))
	t.correlator.GetPositions(t.cfg.Currency)
	t.correlator.GetOrderBook(t.cfg.Instrument, 10)

	go t.staleOrderLoop()
}

// Stop halts the stale-order ticker. It is idempotent.
func (t *Trader) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	done := t.done
	t.mu.Unlock()
	close(done)
}

// OpenOrderIDs returns a snapshot of currently tracked open order ids.
func (t *Trader) OpenOrderIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, len(t.openOrders))
	for i, o := range t.openOrders {
		ids[i] = o.id
	}
	return ids
}
