package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-process request and error counters, tallied by the
// request logger and the error middleware.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
}

// NewMetrics returns an empty counter set.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest tallies a completed request under path|method|status.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	key := metricKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	m.requestCount[key]++
	m.mu.Unlock()
}

// RecordError tallies a domain error under path|method|code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := metricKey(path, method, code)
	m.mu.Lock()
	m.errorCount[key]++
	m.mu.Unlock()
}

func metricKey(parts ...string) string {
	key := parts[0]
	for _, part := range parts[1:] {
		key += "|" + part
	}
	return key
}
