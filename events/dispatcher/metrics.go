package dispatcher

import (
	"sync"
	"time"
)

// Circuit breaker thresholds: an observer is skipped once it has more than
// healthMinSamples recorded deliveries and a failure rate (failures plus
// timeouts over total) above healthMaxFailureRate. Health is recomputed from
// live counters on every dispatch, so the observer re-enters selection as
// soon as later successes dilute its rate.
const (
	healthMinSamples     = 10
	healthMaxFailureRate = 0.5
)

// Metrics is a read-only snapshot of one observer's delivery outcomes.
type Metrics struct {
	ObserverID   string
	Total        int64
	Success      int64
	Failure      int64
	Timeout      int64
	MinLatency   time.Duration
	MaxLatency   time.Duration
	TotalLatency time.Duration
}

// FailureRate returns (failures + timeouts) / total, or 0 before any
// delivery.
func (m Metrics) FailureRate() float64 {
	if m.Total == 0 {
		return 0
	}

	return float64(m.Failure+m.Timeout) / float64(m.Total)
}

// SuccessRate returns successes / total, or 0 before any delivery.
func (m Metrics) SuccessRate() float64 {
	if m.Total == 0 {
		return 0
	}

	return float64(m.Success) / float64(m.Total)
}

// AverageLatency returns the mean delivery latency, or 0 before any delivery.
func (m Metrics) AverageLatency() time.Duration {
	if m.Total == 0 {
		return 0
	}

	return m.TotalLatency / time.Duration(m.Total)
}

// observerMetrics is the live health record behind a Metrics snapshot. One
// record exists per registered identity, created at registration and dropped
// at unregistration. All updates hold the record's mutex so the invariant
// total == success + failure + timeout holds after every update, even under
// concurrent deliveries.
type observerMetrics struct {
	mu           sync.Mutex
	observerID   string
	total        int64
	success      int64
	failure      int64
	timeout      int64
	minLatency   time.Duration
	maxLatency   time.Duration
	totalLatency time.Duration
}

func newObserverMetrics(observerID string) *observerMetrics {
	return &observerMetrics{observerID: observerID}
}

func (m *observerMetrics) recordSuccess(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.success++
	m.recordLatency(elapsed)
}

func (m *observerMetrics) recordFailure(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.failure++
	m.recordLatency(elapsed)
}

func (m *observerMetrics) recordTimeout(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.timeout++
	m.recordLatency(elapsed)
}

// recordLatency must be called with the mutex held.
func (m *observerMetrics) recordLatency(elapsed time.Duration) {
	m.totalLatency += elapsed

	if m.total == 1 || elapsed < m.minLatency {
		m.minLatency = elapsed
	}

	if elapsed > m.maxLatency {
		m.maxLatency = elapsed
	}
}

// healthy reports whether the observer is eligible for the next dispatch.
func (m *observerMetrics) healthy() bool {
	snapshot := m.snapshot()

	return !(snapshot.Total > healthMinSamples && snapshot.FailureRate() > healthMaxFailureRate)
}

func (m *observerMetrics) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Metrics{
		ObserverID:   m.observerID,
		Total:        m.total,
		Success:      m.success,
		Failure:      m.failure,
		Timeout:      m.timeout,
		MinLatency:   m.minLatency,
		MaxLatency:   m.maxLatency,
		TotalLatency: m.totalLatency,
	}
}
