// Package dispatcher delivers events to registered observers under priority
// ordering, per-delivery timeouts, and a failure-ratio circuit breaker.
//
// Critical events are delivered synchronously in priority order and partial
// failures surface to the publisher as a SyncError. All other events fan out
// concurrently over a bounded worker pool; the publish call returns
// immediately while outcomes are still joined and recorded internally, so a
// slow or broken observer can never stall the publisher.
//
// Observer health is recomputed from live counters on every dispatch: an
// observer with more than ten recorded deliveries and a failure rate above
// one half is skipped, and becomes eligible again as soon as later successes
// dilute its rate. There is no open/half-open state machine; callers needing
// timed recovery should layer it on top.
package dispatcher
