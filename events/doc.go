// Package events defines the core event model shared by the dispatch and
// resilience subpackages.
//
// An Event is an immutable, typed system notification built once at publish
// time via New and handed to a dispatcher.Dispatcher, which shares read-only
// references with every registered Observer. Observers declare their identity,
// priority, interest set, and processing-time budget; optional lifecycle hooks
// are expressed through the LifecycleObserver interface.
//
// Typical publish path:
//
//	ev, err := events.New(events.TypeTradeFailed, "order-engine", "order rejected",
//	    events.WithMetadata("orderId", orderID),
//	    events.WithCorrelationID(correlationID),
//	)
//	if err != nil {
//	    return fmt.Errorf("build event: %w", err)
//	}
//	if err := dispatcher.Notify(ctx, ev); err != nil {
//	    return fmt.Errorf("notify: %w", err)
//	}
//
// Specialized concerns live in subpackages: backoff (delay policy), retry
// (bounded re-execution), dispatcher (registration, health tracking, delivery),
// observers (ready-made logging and security observers), and log/zap
// (structured logging).
package events
