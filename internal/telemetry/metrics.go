// Package telemetry exposes the trading client's latency and counter
// metrics on a Prometheus /metrics endpoint, alongside /healthz and
// /readyz for process supervision.
package telemetry

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "deribit_trader",
		Name:      "request_latency_ms",
		Help:      "Round-trip latency between request send and matching response, by request kind.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	}, []string{"kind"})

	propagationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "deribit_trader",
		Name:      "propagation_latency_ms",
		Help:      "Exchange-stamped book event time subtracted from local receive time.",
		Buckets:   []float64{-50, -10, 0, 10, 25, 50, 100, 250, 500},
	})

	processLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "deribit_trader",
		Name:      "process_latency_ms",
		Help:      "Local time spent applying a book update and running the strategy callback.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
	})

	tradingLoopLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "deribit_trader",
		Name:      "trading_loop_latency_ms",
		Help:      "End-to-end latency from a book update to the matching order acknowledgement it triggered.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	ordersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deribit_trader",
		Name:      "orders_placed_total",
		Help:      "Orders submitted, by side.",
	}, []string{"side"})

	ordersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deribit_trader",
		Name:      "orders_cancelled_total",
		Help:      "Cancel requests issued, including stale-order cancels.",
	})

	authFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deribit_trader",
		Name:      "auth_failures_total",
		Help:      "public/auth responses without an access token.",
	})

	parseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deribit_trader",
		Name:      "parse_errors_total",
		Help:      "Inbound messages that failed to decode into a known shape.",
	})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deribit_trader",
		Name:      "rate_limited_total",
		Help:      "Outbound requests dropped by the local rate limiter before being sent, by bucket.",
	}, []string{"bucket"})
)

func init() {
	registry.MustRegister(
		requestLatency,
		propagationLatency,
		processLatency,
		tradingLoopLatency,
		ordersPlaced,
		ordersCancelled,
		authFailures,
		parseErrors,
		rateLimited,
	)
}

// RecordRequestLatency observes latency_ms for a completed request of the
// given kind ("Auth", "Order", "Cancel", …).
func RecordRequestLatency(kind string, ms float64) {
	requestLatency.WithLabelValues(kind).Observe(ms)
}

// RecordPropagationLatency observes propagation_ms for a book update.
func RecordPropagationLatency(ms float64) {
	propagationLatency.Observe(ms)
}

// RecordProcessLatency observes process_ms for a book update.
func RecordProcessLatency(ms float64) {
	processLatency.Observe(ms)
}

// RecordTradingLoopLatency observes trading_loop_latency_ms for an order
// placed in direct reaction to a book update.
func RecordTradingLoopLatency(ms float64) {
	tradingLoopLatency.Observe(ms)
}

// RecordOrderPlaced increments the orders-placed counter for side.
func RecordOrderPlaced(side string) {
	ordersPlaced.WithLabelValues(side).Inc()
}

// RecordOrderCancelled increments the cancel-requests counter.
func RecordOrderCancelled() {
	ordersCancelled.Inc()
}

// RecordAuthFailure increments the auth-failure counter.
func RecordAuthFailure() {
	authFailures.Inc()
}

// RecordParseError increments the parse-error counter.
func RecordParseError() {
	parseErrors.Inc()
}

// RecordRateLimited increments the rate-limited counter for bucket
// ("trading", "market_data", …).
func RecordRateLimited(bucket string) {
	rateLimited.WithLabelValues(bucket).Inc()
}

// Server exposes /metrics, /healthz and /readyz.
type Server struct {
	srv        *http.Server
	readyState atomic.Bool
}

// NewServer constructs a telemetry server bound to addr. An empty addr
// disables the server (NewServer returns nil; all methods are safe to
// call on a nil *Server).
func NewServer(addr string) *Server {
	if addr == "" {
		return nil
	}

	server := &Server{}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if server.readyState.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	server.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return server
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	if s == nil || s.srv == nil {
		return nil
	}
	go func() {
		_ = s.srv.ListenAndServe()
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// SetReady updates the readiness state exposed on /readyz.
func (s *Server) SetReady(ready bool) {
	if s == nil {
		return
	}
	s.readyState.Store(ready)
}
