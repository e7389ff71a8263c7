// Package eventlog serializes structured telemetry records to a single
// sink, one JSON object per line, guaranteed never to interleave.
package eventlog

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink appends newline-delimited JSON event records under a mutex. It is
// the wire-protocol telemetry log (auth_success, market_update, order_ack,
// …) and is a distinct concern from internal/logger's operational
// diagnostics — the two are never interleaved into the same stream.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

// New wraps w as an event sink. Callers own w's lifecycle (close it after
// the sink is no longer in use).
func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Emit appends one record with the given event tag and freeform fields.
// A marshal or write failure is returned to the caller; per the error
// taxonomy this is never escalated to a panic.
func (s *Sink) Emit(event string, fields map[string]any) error {
	record := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		record[k] = v
	}
	record["event"] = event
	record["event_id"] = uuid.NewString()
	record["ts"] = time.Now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return err
}
