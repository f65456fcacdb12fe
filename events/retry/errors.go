package retry

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned when the calling context is cancelled while the
// executor sleeps between attempts.
var ErrInterrupted = errors.New("retry interrupted")

// Retryable is the classification contract for failures. Errors not
// implementing it are treated as transient; only an explicit
// Retryable() == false aborts the retry loop early.
type Retryable interface {
	error
	Retryable() bool
}

type classifiedError struct {
	err       error
	retryable bool
}

func (e *classifiedError) Error() string { return e.err.Error() }

func (e *classifiedError) Unwrap() error { return e.err }

func (e *classifiedError) Retryable() bool { return e.retryable }

// Transient marks err as retryable. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &classifiedError{err: err, retryable: true}
}

// Permanent marks err as fatal: the executor propagates it immediately
// without consuming further attempts. Returns nil for a nil err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &classifiedError{err: err, retryable: false}
}

// IsRetryable reports whether err should be retried. Errors without an
// explicit classification anywhere in their chain are retryable.
func IsRetryable(err error) bool {
	var classified Retryable
	if errors.As(err, &classified) {
		return classified.Retryable()
	}

	return true
}

// ExhaustedError is returned when every attempt failed with a transient
// error. It wraps the last failure.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation %q failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }
