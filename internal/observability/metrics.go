package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the HTTP surface and the
// escalation scan loop.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64

	scanRuns      int64
	scanProcessed int64
	scanEscalated int64
	scanErrors    int64
}

// ScanSnapshot is a point-in-time copy of the scan counters.
type ScanSnapshot struct {
	Runs      int64
	Processed int64
	Escalated int64
	Errors    int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordScan accumulates the outcome of one escalation scan pass.
func (m *Metrics) RecordScan(processed, escalated, errors int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanRuns++
	m.scanProcessed += int64(processed)
	m.scanEscalated += int64(escalated)
	m.scanErrors += int64(errors)
}

// ScanTotals returns the accumulated scan counters.
func (m *Metrics) ScanTotals() ScanSnapshot {
	if m == nil {
		return ScanSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return ScanSnapshot{
		Runs:      m.scanRuns,
		Processed: m.scanProcessed,
		Escalated: m.scanEscalated,
		Errors:    m.scanErrors,
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
