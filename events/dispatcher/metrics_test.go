//go:build unit

package dispatcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsInvariant(t *testing.T) {
	t.Parallel()

	m := newObserverMetrics("obs")

	m.recordSuccess(10 * time.Millisecond)
	m.recordFailure(20 * time.Millisecond)
	m.recordTimeout(30 * time.Millisecond)
	m.recordSuccess(5 * time.Millisecond)

	snapshot := m.snapshot()
	assert.Equal(t, "obs", snapshot.ObserverID)
	assert.Equal(t, snapshot.Success+snapshot.Failure+snapshot.Timeout, snapshot.Total)
	assert.Equal(t, int64(4), snapshot.Total)
	assert.Equal(t, int64(2), snapshot.Success)
	assert.Equal(t, int64(1), snapshot.Failure)
	assert.Equal(t, int64(1), snapshot.Timeout)
}

func TestMetricsLatencyTracking(t *testing.T) {
	t.Parallel()

	m := newObserverMetrics("obs")

	m.recordSuccess(30 * time.Millisecond)
	m.recordSuccess(10 * time.Millisecond)
	m.recordSuccess(20 * time.Millisecond)

	snapshot := m.snapshot()
	assert.Equal(t, 10*time.Millisecond, snapshot.MinLatency)
	assert.Equal(t, 30*time.Millisecond, snapshot.MaxLatency)
	assert.Equal(t, 60*time.Millisecond, snapshot.TotalLatency)
	assert.Equal(t, 20*time.Millisecond, snapshot.AverageLatency())
}

func TestMetricsRates(t *testing.T) {
	t.Parallel()

	m := newObserverMetrics("obs")

	assert.Zero(t, m.snapshot().FailureRate())
	assert.Zero(t, m.snapshot().SuccessRate())
	assert.Zero(t, m.snapshot().AverageLatency())

	m.recordSuccess(time.Millisecond)
	m.recordFailure(time.Millisecond)
	m.recordTimeout(time.Millisecond)
	m.recordSuccess(time.Millisecond)

	snapshot := m.snapshot()
	assert.InDelta(t, 0.5, snapshot.FailureRate(), 1e-9, "timeouts count toward the failure rate")
	assert.InDelta(t, 0.5, snapshot.SuccessRate(), 1e-9)
}

func TestHealthyThresholds(t *testing.T) {
	t.Parallel()

	m := newObserverMetrics("obs")

	// 11 deliveries, 6 failures: rate ~0.545 over the minimum sample count.
	for i := 0; i < 5; i++ {
		m.recordSuccess(time.Millisecond)
	}

	for i := 0; i < 6; i++ {
		m.recordFailure(time.Millisecond)
	}

	assert.False(t, m.healthy(), "11 total with 6 failures trips the breaker")

	// Five subsequent successes dilute the rate to 6/16 = 0.375.
	for i := 0; i < 5; i++ {
		m.recordSuccess(time.Millisecond)
	}

	assert.True(t, m.healthy(), "recovered without any explicit reset")
}

func TestHealthyBelowSampleMinimum(t *testing.T) {
	t.Parallel()

	m := newObserverMetrics("obs")

	// All failures, but too few samples to judge.
	for i := 0; i < 10; i++ {
		m.recordFailure(time.Millisecond)
	}

	assert.True(t, m.healthy(), "breaker needs more than 10 samples")

	m.recordFailure(time.Millisecond)
	assert.False(t, m.healthy())
}

func TestMetricsConcurrentUpdates(t *testing.T) {
	t.Parallel()

	m := newObserverMetrics("obs")

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(3)

		go func() { defer wg.Done(); m.recordSuccess(time.Millisecond) }()
		go func() { defer wg.Done(); m.recordFailure(time.Millisecond) }()
		go func() { defer wg.Done(); m.recordTimeout(time.Millisecond) }()
	}

	wg.Wait()

	snapshot := m.snapshot()
	assert.Equal(t, int64(30), snapshot.Total)
	assert.Equal(t, snapshot.Success+snapshot.Failure+snapshot.Timeout, snapshot.Total)
}
