//go:build unit

package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		base       time.Duration
		multiplier float64
		attempt    int
		capAt      time.Duration
		expected   time.Duration
	}{
		{
			name:       "attempt 0 returns base",
			base:       100 * time.Millisecond,
			multiplier: 2.0,
			attempt:    0,
			capAt:      10 * time.Second,
			expected:   100 * time.Millisecond,
		},
		{
			name:       "attempt 1 doubles base",
			base:       100 * time.Millisecond,
			multiplier: 2.0,
			attempt:    1,
			capAt:      10 * time.Second,
			expected:   200 * time.Millisecond,
		},
		{
			name:       "attempt 3 is 8x base",
			base:       100 * time.Millisecond,
			multiplier: 2.0,
			attempt:    3,
			capAt:      10 * time.Second,
			expected:   800 * time.Millisecond,
		},
		{
			name:       "fractional multiplier grows slower",
			base:       100 * time.Millisecond,
			multiplier: 1.5,
			attempt:    2,
			capAt:      10 * time.Second,
			expected:   225 * time.Millisecond,
		},
		{
			name:       "cap clamps the delay",
			base:       1 * time.Second,
			multiplier: 2.0,
			attempt:    10,
			capAt:      10 * time.Second,
			expected:   10 * time.Second,
		},
		{
			name:       "negative attempt treated as 0",
			base:       100 * time.Millisecond,
			multiplier: 2.0,
			attempt:    -5,
			capAt:      10 * time.Second,
			expected:   100 * time.Millisecond,
		},
		{
			name:       "multiplier below 1 treated as 1",
			base:       100 * time.Millisecond,
			multiplier: 0.5,
			attempt:    4,
			capAt:      10 * time.Second,
			expected:   100 * time.Millisecond,
		},
		{
			name:       "zero base returns 0",
			base:       0,
			multiplier: 2.0,
			attempt:    5,
			capAt:      10 * time.Second,
			expected:   0,
		},
		{
			name:       "zero cap means uncapped",
			base:       1 * time.Second,
			multiplier: 2.0,
			attempt:    3,
			capAt:      0,
			expected:   8 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Delay(tt.base, tt.multiplier, tt.attempt, tt.capAt))
		})
	}
}

func TestDelayHugeAttemptDoesNotOverflow(t *testing.T) {
	t.Parallel()

	delay := Delay(time.Second, 2.0, 500, 0)
	assert.Positive(t, delay)
}

func TestJitterRange(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond

	for i := 0; i < 100; i++ {
		jittered := Jitter(base)
		assert.GreaterOrEqual(t, jittered, base/2)
		assert.Less(t, jittered, base+base/2)
	}
}

func TestJitterZeroDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), Jitter(0))
	assert.Equal(t, time.Duration(0), Jitter(-time.Second))
}

func TestSleepContextCompletes(t *testing.T) {
	t.Parallel()

	err := SleepContext(context.Background(), time.Millisecond)
	assert.NoError(t, err)
}

func TestSleepContextZeroDuration(t *testing.T) {
	t.Parallel()

	err := SleepContext(context.Background(), 0)
	assert.NoError(t, err)
}

func TestSleepContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SleepContext(ctx, 5*time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "should return promptly on cancellation")
}
