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
	errorCount    map[string]int64
	advisoryCalls map[string]int64
	jiraSyncs     map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		advisoryCalls: make(map[string]int64),
		jiraSyncs:     make(map[string]int64),
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

// RecordAdvisoryCall counts advisory judgements by kind, split between
// successful judgements and fallbacks to the default.
func (m *Metrics) RecordAdvisoryCall(kind string, fallback bool) {
	if m == nil {
		return
	}
	key := kind
	if fallback {
		key += "|fallback"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advisoryCalls[key]++
}

// RecordJiraSync counts sync attempts by outcome.
func (m *Metrics) RecordJiraSync(success bool) {
	if m == nil {
		return
	}
	key := "failure"
	if success {
		key = "success"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jiraSyncs[key]++
}

// Snapshot returns a copy of all counters, keyed by group.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests": copyCounts(m.requestCount),
		"errors":   copyCounts(m.errorCount),
		"advisory": copyCounts(m.advisoryCalls),
		"jira":     copyCounts(m.jiraSyncs),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
