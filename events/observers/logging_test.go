//go:build unit

package observers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LerianStudio/lib-events/events"
	"github.com/LerianStudio/lib-events/events/log"
)

// recordingLogger captures log entries for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level  log.Level
	msg    string
	fields map[string]any
}

func (l *recordingLogger) Log(_ context.Context, level log.Level, msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := recordedEntry{level: level, msg: msg, fields: make(map[string]any, len(fields))}
	for _, f := range fields {
		entry.fields[f.Key] = f.Value
	}

	l.entries = append(l.entries, entry)
}

func (l *recordingLogger) With(_ ...log.Field) log.Logger { return l }

func (l *recordingLogger) Enabled(_ log.Level) bool { return true }

func (l *recordingLogger) find(msg string) (recordedEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, entry := range l.entries {
		if entry.msg == msg {
			return entry, true
		}
	}

	return recordedEntry{}, false
}

func TestLoggingObserverContract(t *testing.T) {
	t.Parallel()

	obs := NewLogging("audit", nil, false)

	assert.Equal(t, "audit", obs.ID())
	assert.Equal(t, loggingPriority, obs.Priority())
	assert.Equal(t, loggingMaxProcessingTime, obs.MaxProcessingTime())

	for eventType := events.TypeSystemStartup; eventType <= events.TypeMaintenanceScheduled; eventType++ {
		assert.True(t, obs.InterestedIn(eventType), "logging observer is interested in everything")
	}
}

func TestLoggingObserverLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity events.Severity
		expected log.Level
	}{
		{name: "critical logs at error", severity: events.SeverityCritical, expected: log.LevelError},
		{name: "high logs at warn", severity: events.SeverityHigh, expected: log.LevelWarn},
		{name: "medium logs at info", severity: events.SeverityMedium, expected: log.LevelInfo},
		{name: "low logs at info", severity: events.SeverityLow, expected: log.LevelInfo},
		{name: "info logs at debug", severity: events.SeverityInfo, expected: log.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger := &recordingLogger{}
			obs := NewLogging("audit", logger, false)

			ev, err := events.New(events.TypePriceAlert, "feed", "price moved",
				events.WithSeverity(tt.severity))
			require.NoError(t, err)

			require.NoError(t, obs.Receive(context.Background(), ev))

			entry, ok := logger.find("system event")
			require.True(t, ok)
			assert.Equal(t, tt.expected, entry.level)
			assert.Equal(t, ev.ID(), entry.fields["event_id"])
		})
	}
}

func TestLoggingObserverPayloadOptIn(t *testing.T) {
	t.Parallel()

	ev, err := events.New(events.TypeTradeExecuted, "engine", "filled",
		events.WithPayload("secret order book"))
	require.NoError(t, err)

	quiet := &recordingLogger{}
	require.NoError(t, NewLogging("quiet", quiet, false).Receive(context.Background(), ev))

	entry, ok := quiet.find("system event")
	require.True(t, ok)
	assert.NotContains(t, entry.fields, "payload", "payloads withheld unless opted in")

	chatty := &recordingLogger{}
	require.NoError(t, NewLogging("chatty", chatty, true).Receive(context.Background(), ev))

	entry, ok = chatty.find("system event")
	require.True(t, ok)
	assert.Equal(t, "secret order book", entry.fields["payload"])
}

func TestLoggingObserverCorrelationID(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	obs := NewLogging("audit", logger, false)

	ev, err := events.New(events.TypeUserLogin, "auth", "login",
		events.WithCorrelationID("corr-1"))
	require.NoError(t, err)

	require.NoError(t, obs.Receive(context.Background(), ev))

	entry, ok := logger.find("system event")
	require.True(t, ok)
	assert.Equal(t, "corr-1", entry.fields["correlation_id"])
}

func TestLoggingObserverLifecycleHooks(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	obs := NewLogging("audit", logger, false)

	require.NoError(t, obs.OnRegistered())
	require.NoError(t, obs.OnUnregistered())

	_, ok := logger.find("logging observer registered")
	assert.True(t, ok)

	_, ok = logger.find("logging observer unregistered")
	assert.True(t, ok)
}
