package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/LerianStudio/lib-events/events/backoff"
	"github.com/LerianStudio/lib-events/events/log"
)

// Config holds the retry executor parameters.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt:
	// an operation runs at most MaxRetries+1 times.
	MaxRetries int `env:"RETRY_MAX_RETRIES"`

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration `env:"RETRY_BASE_DELAY"`

	// Multiplier grows the delay between consecutive retries.
	Multiplier float64 `env:"RETRY_MULTIPLIER"`

	// MaxDelay caps the computed delay.
	MaxDelay time.Duration `env:"RETRY_MAX_DELAY"`
}

// DefaultConfig provides balanced settings for most operations.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		Multiplier: 2.0,
		MaxDelay:   10 * time.Second,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}

	if c.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive, got %v", c.BaseDelay)
	}

	if c.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %v", c.Multiplier)
	}

	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("max delay %v must not be below base delay %v", c.MaxDelay, c.BaseDelay)
	}

	return nil
}

// Executor retries operations according to its Config. It is stateless apart
// from configuration and safe for concurrent use.
type Executor struct {
	cfg    Config
	logger log.Logger
}

// NewExecutor validates the configuration and builds an Executor. A nil
// logger defaults to the no-op logger.
func NewExecutor(cfg Config, logger log.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	if logger == nil {
		logger = log.NewNop()
	}

	return &Executor{cfg: cfg, logger: logger}, nil
}

// Do runs op until it succeeds, fails permanently, exhausts all attempts, or
// the context is cancelled. Between transient failures it sleeps the capped
// exponential backoff delay scaled by jitter.
func (ex *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, ex, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

// DoValue is the value-returning variant of Executor.Do.
func DoValue[T any](ctx context.Context, ex *Executor, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := ex.cfg.MaxRetries + 1

	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		ex.logger.Log(ctx, log.LevelDebug, "executing operation",
			log.String("operation", name),
			log.Int("attempt", attempt+1),
			log.Int("max_attempts", maxAttempts),
		)

		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				ex.logger.Log(ctx, log.LevelInfo, "operation succeeded after retries",
					log.String("operation", name),
					log.Int("retries", attempt),
				)
			}

			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			ex.logger.Log(ctx, log.LevelError, "non-retryable error",
				log.String("operation", name),
				log.Err(err),
			)

			return zero, err
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := backoff.Jitter(backoff.Delay(ex.cfg.BaseDelay, ex.cfg.Multiplier, attempt, ex.cfg.MaxDelay))

		ex.logger.Log(ctx, log.LevelWarn, "operation failed, retrying",
			log.String("operation", name),
			log.Int("attempt", attempt+1),
			log.Int("max_attempts", maxAttempts),
			log.Duration("delay", delay),
			log.Err(err),
		)

		if err := backoff.SleepContext(ctx, delay); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
	}

	ex.logger.Log(ctx, log.LevelError, "operation exhausted all attempts",
		log.String("operation", name),
		log.Int("attempts", maxAttempts),
		log.Err(lastErr),
	)

	return zero, &ExhaustedError{Op: name, Attempts: maxAttempts, Err: lastErr}
}
