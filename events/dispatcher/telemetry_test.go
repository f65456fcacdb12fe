//go:build unit

package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/LerianStudio/lib-events/events"
)

// Uses the global meter provider; not parallel.
func TestDispatchTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	d, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, d.Register(newTestObserver("meter", 5)))

	ev, err := events.New(events.TypeSecurityAlert, "test", "critical path")
	require.NoError(t, err)
	require.NoError(t, d.Notify(context.Background(), ev))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}

	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			names[metric.Name] = true
		}
	}

	assert.True(t, names["events_published_total"], "published counter recorded")
	assert.True(t, names["event_deliveries_total"], "deliveries counter recorded")
	assert.True(t, names["event_delivery_duration_seconds"], "duration histogram recorded")
}
