package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestMillis map[string]int64
	errorCount    map[string]int64
	workflowRuns  map[string]int64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Requests       map[string]int64 `json:"requests"`
	RequestMillis  map[string]int64 `json:"request_millis"`
	Errors         map[string]int64 `json:"errors"`
	WorkflowRuns   map[string]int64 `json:"workflow_runs"`
	CollectedAtUTC time.Time        `json:"collected_at"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		requestMillis: make(map[string]int64),
		errorCount:    make(map[string]int64),
		workflowRuns:  make(map[string]int64),
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
	m.requestMillis[key] += duration.Milliseconds()
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

// RecordWorkflowRun counts finished workflow runs by function and outcome.
func (m *Metrics) RecordWorkflowRun(function string, success bool, attempts int) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowRuns[function+"|"+outcome]++
	m.workflowRuns[function+"|attempts"] += int64(attempts)
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{CollectedAtUTC: time.Now().UTC()}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Requests = copyCounters(m.requestCount)
	snap.RequestMillis = copyCounters(m.requestMillis)
	snap.Errors = copyCounters(m.errorCount)
	snap.WorkflowRuns = copyCounters(m.workflowRuns)
	return snap
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
