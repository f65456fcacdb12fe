package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/LerianStudio/lib-events/events"
)

const meterName = "github.com/LerianStudio/lib-events/events/dispatcher"

// Delivery outcome labels used on the deliveries counter and duration
// histogram.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeTimeout = "timeout"
)

// telemetry records dispatch activity through the global OpenTelemetry meter
// provider. Without an installed provider the instruments are no-ops.
type telemetry struct {
	published  metric.Int64Counter
	deliveries metric.Int64Counter
	duration   metric.Float64Histogram
}

func newTelemetry() (*telemetry, error) {
	meter := otel.Meter(meterName)

	published, err := meter.Int64Counter("events_published_total",
		metric.WithDescription("Total number of events accepted for dispatch"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create published counter: %w", err)
	}

	deliveries, err := meter.Int64Counter("event_deliveries_total",
		metric.WithDescription("Total number of per-observer delivery attempts by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create deliveries counter: %w", err)
	}

	duration, err := meter.Float64Histogram("event_delivery_duration_seconds",
		metric.WithDescription("Per-observer delivery duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &telemetry{published: published, deliveries: deliveries, duration: duration}, nil
}

func (t *telemetry) recordPublished(ctx context.Context, eventType events.EventType, critical bool) {
	if t == nil {
		return
	}

	t.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType.String()),
		attribute.Bool("critical", critical),
	))
}

func (t *telemetry) recordDelivery(ctx context.Context, eventType events.EventType, outcome string, elapsed time.Duration) {
	if t == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType.String()),
		attribute.String("outcome", outcome),
	)

	t.deliveries.Add(ctx, 1, attrs)
	t.duration.Record(ctx, elapsed.Seconds(), attrs)
}
