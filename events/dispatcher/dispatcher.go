package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LerianStudio/lib-events/events"
	"github.com/LerianStudio/lib-events/events/log"
	"github.com/LerianStudio/lib-events/events/retry"
)

// Dispatcher delivers events to registered observers. Construct one with New
// and share it; all methods are safe for concurrent use.
type Dispatcher struct {
	cfg       Config
	logger    log.Logger
	registry  *registry
	retryExec *retry.Executor
	telemetry *telemetry
	sem       chan struct{}
	inflight  sync.WaitGroup
	closed    atomic.Bool
}

// New validates the configuration and builds a Dispatcher. A nil logger
// defaults to the no-op logger.
func New(cfg Config, logger log.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher config: %w", err)
	}

	if logger == nil {
		logger = log.NewNop()
	}

	retryExec, err := retry.NewExecutor(cfg.Retry, logger)
	if err != nil {
		return nil, err
	}

	tel, err := newTelemetry()
	if err != nil {
		logger.Log(context.Background(), log.LevelWarn, "dispatch telemetry disabled", log.Err(err))
	}

	d := &Dispatcher{
		cfg:       cfg,
		logger:    logger,
		registry:  newRegistry(),
		retryExec: retryExec,
		telemetry: tel,
		sem:       make(chan struct{}, cfg.Workers),
	}

	logger.Log(context.Background(), log.LevelInfo, "dispatcher initialized",
		log.Int("workers", cfg.Workers),
		log.Duration("default_timeout", cfg.DefaultTimeout),
	)

	return d, nil
}

// Retry returns the executor built from the dispatcher's retry
// configuration. The dispatcher never retries deliveries itself; publishers
// wanting retry semantics wrap their own operations with it.
func (d *Dispatcher) Retry() *retry.Executor {
	return d.retryExec
}

// Register adds an observer under its identity. It fails with
// ErrAlreadyRegistered when the identity is taken and ErrShutdown after
// Shutdown. A failing OnRegistered hook is logged, not propagated.
func (d *Dispatcher) Register(observer events.Observer) error {
	if observer == nil {
		return ErrNilObserver
	}

	if observer.ID() == "" {
		return ErrEmptyObserverID
	}

	if d.closed.Load() {
		return ErrShutdown
	}

	if _, err := d.registry.add(observer); err != nil {
		return fmt.Errorf("%w: %s", err, observer.ID())
	}

	if lifecycle, ok := observer.(events.LifecycleObserver); ok {
		if err := lifecycle.OnRegistered(); err != nil {
			d.logger.Log(context.Background(), log.LevelWarn, "observer registration hook failed",
				log.String("observer_id", observer.ID()),
				log.Err(err),
			)
		}
	}

	d.logger.Log(context.Background(), log.LevelInfo, "observer registered",
		log.String("observer_id", observer.ID()),
		log.Int("priority", observer.Priority()),
		log.Duration("max_processing_time", observer.MaxProcessingTime()),
	)

	return nil
}

// Unregister removes the observer and its health record. It fails with
// ErrNotFound for unknown identities. A failing OnUnregistered hook is
// logged, not propagated.
func (d *Dispatcher) Unregister(id string) error {
	if id == "" {
		return ErrEmptyObserverID
	}

	reg, err := d.registry.remove(id)
	if err != nil {
		return fmt.Errorf("%w: %s", err, id)
	}

	if lifecycle, ok := reg.observer.(events.LifecycleObserver); ok {
		if err := lifecycle.OnUnregistered(); err != nil {
			d.logger.Log(context.Background(), log.LevelWarn, "observer unregistration hook failed",
				log.String("observer_id", id),
				log.Err(err),
			)
		}
	}

	d.logger.Log(context.Background(), log.LevelInfo, "observer unregistered",
		log.String("observer_id", id),
	)

	return nil
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	return d.registry.count()
}

// ObserverCountFor returns the number of observers interested in the given
// event type, regardless of health.
func (d *Dispatcher) ObserverCountFor(eventType events.EventType) int {
	return d.registry.countInterestedIn(eventType)
}

// IsRegistered reports whether an observer with the given identity exists.
func (d *Dispatcher) IsRegistered(id string) bool {
	_, ok := d.registry.get(id)
	return ok
}

// MetricsSnapshot returns a read-only copy of every observer's health record.
func (d *Dispatcher) MetricsSnapshot() map[string]Metrics {
	return d.registry.snapshot()
}

// Notify publishes an event to every interested, healthy observer.
//
// Critical events are delivered synchronously in descending priority order
// (ties in registration order); if any delivery fails or times out, Notify
// returns a *SyncError listing each failing observer after all have been
// attempted. Other events fan out concurrently: Notify returns immediately
// while deliveries proceed on the worker pool, with failures logged and
// recorded but never raised.
func (d *Dispatcher) Notify(ctx context.Context, event *events.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	if d.closed.Load() {
		return ErrShutdown
	}

	selected := d.registry.eligible(event.Type())
	if len(selected) == 0 {
		d.logger.Log(ctx, log.LevelDebug, "no observers interested in event",
			log.String("event_id", event.ID()),
			log.String("event_type", event.Type().String()),
		)

		return nil
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].observer.Priority() > selected[j].observer.Priority()
	})

	d.telemetry.recordPublished(ctx, event.Type(), event.IsCritical())

	d.logger.Log(ctx, log.LevelDebug, "notifying observers",
		log.String("event_id", event.ID()),
		log.String("event_type", event.Type().String()),
		log.Int("observers", len(selected)),
	)

	if event.IsCritical() {
		return d.notifySync(ctx, selected, event)
	}

	d.notifyAsync(ctx, selected, event)

	return nil
}

func (d *Dispatcher) notifySync(ctx context.Context, selected []*registration, event *events.Event) error {
	var failures []DeliveryFailure

	for _, reg := range selected {
		if err := d.deliver(ctx, reg, event); err != nil {
			failures = append(failures, DeliveryFailure{ObserverID: reg.observer.ID(), Err: err})

			d.logger.Log(ctx, log.LevelError, "synchronous delivery failed",
				log.String("event_id", event.ID()),
				log.String("observer_id", reg.observer.ID()),
				log.Err(err),
			)
		}
	}

	if len(failures) > 0 {
		return &SyncError{EventID: event.ID(), Failures: failures}
	}

	return nil
}

func (d *Dispatcher) notifyAsync(ctx context.Context, selected []*registration, event *events.Event) {
	// The caller may cancel its context right after Notify returns;
	// fire-and-forget deliveries must not be cut short by that, so only the
	// context values (trace correlation) are carried over.
	dctx := context.WithoutCancel(ctx)

	var pending sync.WaitGroup

	for _, reg := range selected {
		d.inflight.Add(1)
		pending.Add(1)

		go func(reg *registration) {
			defer d.inflight.Done()
			defer pending.Done()

			d.sem <- struct{}{}
			defer func() { <-d.sem }()

			if err := d.deliver(dctx, reg, event); err != nil {
				d.logger.Log(dctx, log.LevelError, "asynchronous delivery failed",
					log.String("event_id", event.ID()),
					log.String("observer_id", reg.observer.ID()),
					log.Err(err),
				)
			}
		}(reg)
	}

	// Join the fan-out internally even though the publisher does not wait, so
	// every outcome is recorded before the event is considered fully
	// processed.
	go func() {
		pending.Wait()
		d.logger.Log(dctx, log.LevelDebug, "all asynchronous deliveries completed",
			log.String("event_id", event.ID()),
		)
	}()
}

// deliver runs one observer invocation bounded by the effective timeout and
// records the outcome in the observer's health record. A delivery that
// exceeds its budget is abandoned, not preempted: the observer goroutine
// keeps running until its handler returns, but its outcome is already
// recorded as a timeout.
func (d *Dispatcher) deliver(ctx context.Context, reg *registration, event *events.Event) error {
	observer := reg.observer
	timeout := d.effectiveTimeout(observer)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- fmt.Errorf("observer panicked: %v", recovered)
			}
		}()

		done <- observer.Receive(cctx, event)
	}()

	select {
	case err := <-done:
		elapsed := time.Since(start)

		if err != nil {
			reg.metrics.recordFailure(elapsed)
			d.telemetry.recordDelivery(ctx, event.Type(), outcomeFailure, elapsed)

			return &DeliveryError{ObserverID: observer.ID(), Err: err}
		}

		reg.metrics.recordSuccess(elapsed)
		d.telemetry.recordDelivery(ctx, event.Type(), outcomeSuccess, elapsed)

		d.logger.Log(ctx, log.LevelDebug, "observer processed event",
			log.String("event_id", event.ID()),
			log.String("observer_id", observer.ID()),
			log.String("outcome", outcomeSuccess),
			log.Duration("elapsed", elapsed),
		)

		return nil

	case <-cctx.Done():
		elapsed := time.Since(start)

		reg.metrics.recordTimeout(elapsed)
		d.telemetry.recordDelivery(ctx, event.Type(), outcomeTimeout, elapsed)

		return &TimeoutError{ObserverID: observer.ID(), Elapsed: elapsed}
	}
}

func (d *Dispatcher) effectiveTimeout(observer events.Observer) time.Duration {
	timeout := d.cfg.DefaultTimeout
	if budget := observer.MaxProcessingTime(); budget > 0 && budget < timeout {
		timeout = budget
	}

	return timeout
}

// Shutdown stops accepting new publishes and registrations, then drains
// in-flight concurrent deliveries until they finish or ctx expires. It is
// idempotent; later calls return immediately.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}

	drained := make(chan struct{})

	go func() {
		d.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		d.logger.Log(ctx, log.LevelInfo, "dispatcher shutdown completed")
		return nil
	case <-ctx.Done():
		d.logger.Log(ctx, log.LevelWarn, "dispatcher shutdown abandoned in-flight deliveries",
			log.Err(ctx.Err()),
		)

		return fmt.Errorf("shutdown drain: %w", ctx.Err())
	}
}
