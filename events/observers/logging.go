package observers

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-events/events"
	"github.com/LerianStudio/lib-events/events/log"
)

const (
	loggingPriority          = 9
	loggingMaxProcessingTime = 1 * time.Second
)

// Logging records every event to the structured log at a level matching its
// severity. It is interested in all event types.
type Logging struct {
	id          string
	logger      log.Logger
	logPayloads bool
}

// Compile-time assertion: *Logging implements the lifecycle extension.
var _ events.LifecycleObserver = (*Logging)(nil)

// NewLogging builds a logging observer. When logPayloads is true the opaque
// event payload is included in log entries; leave it false when payloads may
// carry sensitive data.
func NewLogging(id string, logger log.Logger, logPayloads bool) *Logging {
	if logger == nil {
		logger = log.NewNop()
	}

	return &Logging{id: id, logger: logger, logPayloads: logPayloads}
}

// Receive logs the event. Critical events are logged with full detail fields.
func (o *Logging) Receive(ctx context.Context, event *events.Event) error {
	fields := []log.Field{
		log.String("event_id", event.ID()),
		log.String("event_type", event.Type().String()),
		log.String("severity", event.Severity().String()),
		log.String("source", event.Source()),
		log.String("message", event.Message()),
	}

	if event.HasCorrelationID() {
		fields = append(fields, log.String("correlation_id", event.CorrelationID()))
	}

	if event.MetadataLen() > 0 {
		fields = append(fields, log.Any("metadata", event.MetadataCopy()))
	}

	if o.logPayloads && event.HasPayload() {
		fields = append(fields, log.Any("payload", event.Payload()))
	}

	fields = append(fields, log.Any("timestamp", event.Timestamp()))

	o.logger.Log(ctx, severityToLevel(event.Severity()), "system event", fields...)

	return nil
}

// ID returns the observer identity.
func (o *Logging) ID() string { return o.id }

// Priority returns the dispatch priority. Logging runs near the front so the
// audit trail is written before slower observers act.
func (o *Logging) Priority() int { return loggingPriority }

// InterestedIn always returns true; every event is logged.
func (o *Logging) InterestedIn(_ events.EventType) bool { return true }

// MaxProcessingTime returns the per-delivery budget.
func (o *Logging) MaxProcessingTime() time.Duration { return loggingMaxProcessingTime }

// OnRegistered implements events.LifecycleObserver.
func (o *Logging) OnRegistered() error {
	o.logger.Log(context.Background(), log.LevelInfo, "logging observer registered",
		log.String("observer_id", o.id),
		log.Bool("log_payloads", o.logPayloads),
	)

	return nil
}

// OnUnregistered implements events.LifecycleObserver.
func (o *Logging) OnUnregistered() error {
	o.logger.Log(context.Background(), log.LevelInfo, "logging observer unregistered",
		log.String("observer_id", o.id),
	)

	return nil
}

func severityToLevel(severity events.Severity) log.Level {
	switch severity {
	case events.SeverityCritical:
		return log.LevelError
	case events.SeverityHigh:
		return log.LevelWarn
	case events.SeverityMedium, events.SeverityLow:
		return log.LevelInfo
	default:
		return log.LevelDebug
	}
}
