package telemetry

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordRequestLatency("Auth", 12.5)
		RecordPropagationLatency(-3.2)
		RecordProcessLatency(0.8)
		RecordTradingLoopLatency(42.0)
		RecordOrderPlaced("buy")
		RecordOrderCancelled()
		RecordAuthFailure()
		RecordParseError()
	})
}

func TestNewServerWithEmptyAddrIsNilAndSafe(t *testing.T) {
	var s *Server
	assert.Nil(t, NewServer(""))
	assert.NotPanics(t, func() {
		_ = s.Start()
		_ = s.Shutdown(context.Background())
		s.SetReady(true)
	})
}

func TestServerServesMetricsHealthAndReady(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	require.NotNil(t, s)

	// Exercise the handler directly rather than binding a real listener,
	// since NewServer's addr is fixed at construction time.
	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(t, err)
	rec := newRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.status)

	s.SetReady(true)
	req, _ = http.NewRequest(http.MethodGet, "/readyz", nil)
	rec = newRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.status)

	RecordOrderPlaced("sell")
	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	rec = newRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.status)
	assert.Contains(t, rec.body, "deribit_trader_orders_placed_total")

	require.NoError(t, s.Shutdown(context.Background()))
}

type recorder struct {
	status int
	body   string
}

func newRecorder() *recorder { return &recorder{status: http.StatusOK} }

func (r *recorder) Header() http.Header         { return http.Header{} }
func (r *recorder) WriteHeader(statusCode int)  { r.status = statusCode }
func (r *recorder) Write(b []byte) (int, error) {
	r.body += string(b)
	return len(b), nil
}
