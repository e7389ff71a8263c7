package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitProducesValidJSONWithEventField(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf)

	require.NoError(t, sink.Emit("auth_success", map[string]any{"kind": "Auth"}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "auth_success", decoded["event"])
	assert.Equal(t, "Auth", decoded["kind"])
	assert.NotEmpty(t, decoded["event_id"])
}

func TestEmitNeverInterleavesConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = sink.Emit("market_update", map[string]any{"seq": strconv.Itoa(i)})
		}(i)
	}
	wg.Wait()

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded), "line %d must be standalone valid JSON", lines)
		assert.Equal(t, "market_update", decoded["event"])
		lines++
	}
	assert.Equal(t, 50, lines)
}
