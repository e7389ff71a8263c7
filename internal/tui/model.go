package tui

import (
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guyghost/deribit-trader/internal/jsonrpc"
)

// Correlator is the read-only surface the status view needs from the API
// correlator. *deribit.Client satisfies it.
type Correlator interface {
	Connected() bool
	BestBidAsk() (bid, ask *jsonrpc.PriceLevel)
	BookLevels() (bids, asks []jsonrpc.PriceLevel)
	LatencySnapshot() (requestMs, propagationMs, processMs float64)
	Positions() []jsonrpc.PositionInfo
}

// OrderTracker is the read-only surface the status view needs from the
// strategy. *trader.Trader satisfies it.
type OrderTracker interface {
	OpenOrderIDs() []string
}

// Model is the status view's bubbletea model: a single screen showing
// connection state, top-of-book, book depth, open orders and latency.
type Model struct {
	correlator Correlator
	orders     OrderTracker
	instrument string

	width, height int
	lastUpdate    time.Time

	connected               bool
	bid, ask                *jsonrpc.PriceLevel
	bookBids, bookAsks      []jsonrpc.PriceLevel
	openOrders              []string
	positions               []jsonrpc.PositionInfo
	requestMs, propagationMs, processMs float64

	messages []string
}

// NewModel constructs the status view model for instrument, polling
// correlator and orders on each tick.
func NewModel(correlator Correlator, orders OrderTracker, instrument string) Model {
	return Model{
		correlator: correlator,
		orders:     orders,
		instrument: instrument,
		lastUpdate: time.Now(),
		messages:   make([]string, 0, 32),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// addMessage appends a timestamped line to the activity log, keeping only
// the most recent 50 entries.
func (m *Model) addMessage(line string) {
	m.messages = append(m.messages, time.Now().Format("15:04:05")+" "+line)
	if len(m.messages) > 50 {
		m.messages = m.messages[len(m.messages)-50:]
	}
}

// refresh pulls the latest snapshot from the correlator and order tracker.
func (m *Model) refresh() {
	m.lastUpdate = time.Now()
	m.connected = m.correlator.Connected()
	m.bid, m.ask = m.correlator.BestBidAsk()
	m.bookBids, m.bookAsks = m.correlator.BookLevels()
	m.requestMs, m.propagationMs, m.processMs = m.correlator.LatencySnapshot()
	m.positions = m.correlator.Positions()

	previousOpen := len(m.openOrders)
	m.openOrders = m.orders.OpenOrderIDs()
	if len(m.openOrders) != previousOpen {
		m.addMessage("open orders: " + strconv.Itoa(len(m.openOrders)))
	}
}
