package deribit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/guyghost/deribit-trader/internal/wsclient"
)

// fakeTransport stands in for wsclient.Client so the correlator's request
// issuance and message routing can be tested without a real socket.
type fakeTransport struct {
	mu      sync.Mutex
	handler wsclient.Handler
	running bool
	sent    []map[string]any
}

func (f *fakeTransport) SetMessageHandler(h wsclient.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeTransport) Connect(ctx context.Context, rawURL string, insecureSkipVerify bool) error {
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Send(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return false
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return false
	}
	f.sent = append(f.sent, decoded)
	return true
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// deliver feeds a server message into the registered handler, as the
// transport's reader loop would.
func (f *fakeTransport) deliver(msg string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(msg)
}

func (f *fakeTransport) lastSent() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeSink records the calls the correlator makes into the Trader's
// notification interface.
type fakeSink struct {
	mu          sync.Mutex
	bookUpdates []BookSnapshot
	opened      []string
	closed      []string
}

func (s *fakeSink) OnBookUpdate(snapshot BookSnapshot, receivedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookUpdates = append(s.bookUpdates, snapshot)
}

func (s *fakeSink) OnOrderOpen(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, orderID)
}

func (s *fakeSink) OnOrderClosed(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, orderID)
}

func (s *fakeSink) lastBookUpdate() (BookSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bookUpdates) == 0 {
		return BookSnapshot{}, false
	}
	return s.bookUpdates[len(s.bookUpdates)-1], true
}

func (s *fakeSink) openedOrders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.opened))
	copy(out, s.opened)
	return out
}

func (s *fakeSink) closedOrders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.closed))
	copy(out, s.closed)
	return out
}
