package backoff

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Jitter scale bounds. Delays are scaled by a uniform factor in
// [jitterMin, jitterMax) so concurrent retries spread out.
const (
	jitterMin = 0.5
	jitterMax = 1.5
)

// Delay calculates the capped exponential delay for the given attempt.
// The delay is base * multiplier^attempt, clamped to capAt. Attempt 0 is the
// first retry. Negative attempts are treated as 0; a multiplier below 1 is
// treated as 1 so delays never shrink.
func Delay(base time.Duration, multiplier float64, attempt int, capAt time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}

	if attempt < 0 {
		attempt = 0
	}

	if multiplier < 1 {
		multiplier = 1
	}

	scaled := float64(base) * math.Pow(multiplier, float64(attempt))
	if math.IsInf(scaled, 1) || scaled > float64(math.MaxInt64) {
		scaled = float64(math.MaxInt64)
	}

	delay := time.Duration(scaled)
	if capAt > 0 && delay > capAt {
		delay = capAt
	}

	return delay
}

// Jitter scales the delay by a uniform random factor in [0.5, 1.5).
// Returns 0 for zero or negative delays.
func Jitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}

	factor := jitterMin + rand.Float64()*(jitterMax-jitterMin)

	scaled := float64(delay) * factor
	if scaled > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(scaled)
}

// SleepContext sleeps for the specified duration but respects context
// cancellation. Returns nil if the sleep completes, or an error if the
// context is cancelled first. Returns immediately (nil) for zero or negative
// durations.
func SleepContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}
