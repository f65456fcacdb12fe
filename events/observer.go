package events

import (
	"context"
	"time"
)

// Priority bounds for observers. Higher priorities are served first.
const (
	MinPriority = 1
	MaxPriority = 10
)

// Observer consumes events published through a dispatcher. Implementations
// must be safe for concurrent use: Receive may be invoked from multiple
// goroutines for distinct events.
type Observer interface {
	// Receive handles a single event. The context carries the per-delivery
	// timeout; implementations should honor its cancellation. A non-nil error
	// marks the delivery failed in the observer's health metrics.
	Receive(ctx context.Context, event *Event) error

	// ID returns the unique identity under which the observer is registered.
	ID() string

	// Priority returns the dispatch ordering priority (MinPriority..MaxPriority,
	// higher first).
	Priority() int

	// InterestedIn reports whether the observer wants events of the given type.
	InterestedIn(eventType EventType) bool

	// MaxProcessingTime returns the observer's own per-delivery budget. The
	// effective timeout is the smaller of this value and the dispatcher's
	// default timeout.
	MaxProcessingTime() time.Duration
}

// LifecycleObserver is an optional extension: observers implementing it are
// notified when they join and leave a dispatcher. Hook errors are logged and
// swallowed, never propagated to the caller of Register/Unregister.
type LifecycleObserver interface {
	Observer

	OnRegistered() error
	OnUnregistered() error
}

// ClampPriority bounds p to the valid observer priority range.
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}

	if p > MaxPriority {
		return MaxPriority
	}

	return p
}
