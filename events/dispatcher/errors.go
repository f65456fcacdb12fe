package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Registry and lifecycle errors. These indicate caller mistakes and are never
// retryable.
var (
	ErrAlreadyRegistered = errors.New("observer already registered")
	ErrNotFound          = errors.New("observer not registered")
	ErrShutdown          = errors.New("dispatcher is shut down")
	ErrNilEvent          = errors.New("event must not be nil")
	ErrNilObserver       = errors.New("observer must not be nil")
	ErrEmptyObserverID   = errors.New("observer ID must not be empty")
)

// TimeoutError reports a delivery that exceeded its processing budget. The
// delivery is recorded as a timeout, not a failure, in the observer's
// metrics.
type TimeoutError struct {
	ObserverID string
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("observer %q timed out after %v", e.ObserverID, e.Elapsed)
}

// Retryable marks timeouts as transient for callers that wrap dispatch in a
// retry executor.
func (e *TimeoutError) Retryable() bool { return true }

// DeliveryError reports a single failed delivery and wraps the observer's
// error.
type DeliveryError struct {
	ObserverID string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("observer %q failed to process event: %v", e.ObserverID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Retryable marks delivery failures as transient.
func (e *DeliveryError) Retryable() bool { return true }

// DeliveryFailure pairs a failing observer's identity with its error inside a
// SyncError.
type DeliveryFailure struct {
	ObserverID string
	Err        error
}

// SyncError aggregates the per-observer failures of a synchronous (critical)
// dispatch. Every eligible observer was still attempted.
type SyncError struct {
	EventID  string
	Failures []DeliveryFailure
}

func (e *SyncError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.ObserverID, f.Err))
	}

	return fmt.Sprintf("failed to notify %d observers for event %s: %s",
		len(e.Failures), e.EventID, strings.Join(parts, ", "))
}

// FailedObservers returns the identities of every failing observer.
func (e *SyncError) FailedObservers() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ObserverID)
	}

	return ids
}
