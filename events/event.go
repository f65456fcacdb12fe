package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the system event categories.
type EventType int

// Event categories. Each type carries a default severity applied by New when
// no explicit severity option is given.
const (
	TypeSystemStartup EventType = iota
	TypeSystemShutdown
	TypeUserLogin
	TypeUserLogout
	TypeTradeExecuted
	TypeTradeFailed
	TypeMarketDataUpdate
	TypePriceAlert
	TypeSystemError
	TypePerformanceWarning
	TypeSecurityAlert
	TypeConfigurationChanged
	TypeBackupCompleted
	TypeMaintenanceScheduled
)

var eventTypeNames = map[EventType]string{
	TypeSystemStartup:        "System Startup",
	TypeSystemShutdown:       "System Shutdown",
	TypeUserLogin:            "User Login",
	TypeUserLogout:           "User Logout",
	TypeTradeExecuted:        "Trade Executed",
	TypeTradeFailed:          "Trade Failed",
	TypeMarketDataUpdate:     "Market Data Update",
	TypePriceAlert:           "Price Alert",
	TypeSystemError:          "System Error",
	TypePerformanceWarning:   "Performance Warning",
	TypeSecurityAlert:        "Security Alert",
	TypeConfigurationChanged: "Configuration Changed",
	TypeBackupCompleted:      "Backup Completed",
	TypeMaintenanceScheduled: "Maintenance Scheduled",
}

// String returns the display name of the event type.
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("EventType(%d)", int(t))
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	_, ok := eventTypeNames[t]
	return ok
}

// DefaultSeverity returns the severity assigned to events of this type when
// the publisher does not choose one explicitly.
func (t EventType) DefaultSeverity() Severity {
	switch t {
	case TypeSystemStartup, TypeSystemShutdown, TypeTradeFailed, TypeSystemError, TypeSecurityAlert:
		return SeverityCritical
	case TypeTradeExecuted, TypePriceAlert, TypePerformanceWarning:
		return SeverityHigh
	case TypeUserLogin, TypeUserLogout, TypeConfigurationChanged, TypeMaintenanceScheduled:
		return SeverityMedium
	case TypeBackupCompleted:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// Severity is the ordered importance of an event. Lower numeric values
// indicate higher importance (SeverityCritical=1 is most severe).
type Severity int

// Severity levels, most severe first.
const (
	SeverityCritical Severity = iota + 1
	SeverityHigh
	SeverityMedium
	SeverityLow
	SeverityInfo
)

// String returns the display name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityHigh:
		return "High"
	case SeverityMedium:
		return "Medium"
	case SeverityLow:
		return "Low"
	case SeverityInfo:
		return "Info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Valid reports whether s is a known severity level.
func (s Severity) Valid() bool {
	return s >= SeverityCritical && s <= SeverityInfo
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s <= other
}

// Event construction and payload access errors.
var (
	ErrEmptySource    = errors.New("event source must not be empty")
	ErrEmptyMessage   = errors.New("event message must not be empty")
	ErrInvalidType    = errors.New("unknown event type")
	ErrNoPayload      = errors.New("event has no payload")
	ErrPayloadType    = errors.New("payload is not of the requested type")
	ErrInvalidOption  = errors.New("invalid event option")
)

// Event is an immutable system notification. Build one with New; after that
// the value is read-only and safe to share across goroutines. Equality is by
// ID.
type Event struct {
	id            string
	eventType     EventType
	severity      Severity
	source        string
	message       string
	timestamp     time.Time
	metadata      map[string]any
	payload       any
	correlationID string
}

// Option customizes an Event under construction.
type Option func(*Event) error

// WithSeverity overrides the type's default severity.
func WithSeverity(s Severity) Option {
	return func(e *Event) error {
		if !s.Valid() {
			return fmt.Errorf("%w: severity %d", ErrInvalidOption, int(s))
		}

		e.severity = s

		return nil
	}
}

// WithMetadata attaches a single metadata entry.
func WithMetadata(key string, value any) Option {
	return func(e *Event) error {
		if key == "" {
			return fmt.Errorf("%w: empty metadata key", ErrInvalidOption)
		}

		e.metadata[key] = value

		return nil
	}
}

// WithMetadataMap attaches every entry of the given map.
func WithMetadataMap(metadata map[string]any) Option {
	return func(e *Event) error {
		for key, value := range metadata {
			if key == "" {
				return fmt.Errorf("%w: empty metadata key", ErrInvalidOption)
			}

			e.metadata[key] = value
		}

		return nil
	}
}

// WithPayload attaches an opaque payload.
func WithPayload(payload any) Option {
	return func(e *Event) error {
		e.payload = payload
		return nil
	}
}

// WithCorrelationID links the event to a broader workflow.
func WithCorrelationID(id string) Option {
	return func(e *Event) error {
		e.correlationID = id
		return nil
	}
}

// WithTimestamp overrides the creation timestamp. Intended for replay and
// testing scenarios.
func WithTimestamp(ts time.Time) Option {
	return func(e *Event) error {
		if ts.IsZero() {
			return fmt.Errorf("%w: zero timestamp", ErrInvalidOption)
		}

		e.timestamp = ts

		return nil
	}
}

// WithID overrides the generated event ID. Intended for testing.
func WithID(id string) Option {
	return func(e *Event) error {
		if id == "" {
			return fmt.Errorf("%w: empty event ID", ErrInvalidOption)
		}

		e.id = id

		return nil
	}
}

// New builds an immutable Event of the given type. The ID is generated, the
// timestamp defaults to the current time, and the severity defaults from the
// event type unless WithSeverity is supplied.
func New(eventType EventType, source, message string, opts ...Option) (*Event, error) {
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidType, int(eventType))
	}

	if source == "" {
		return nil, ErrEmptySource
	}

	if message == "" {
		return nil, ErrEmptyMessage
	}

	ev := &Event{
		id:        uuid.NewString(),
		eventType: eventType,
		severity:  eventType.DefaultSeverity(),
		source:    source,
		message:   message,
		timestamp: time.Now(),
		metadata:  make(map[string]any),
	}

	for _, opt := range opts {
		if err := opt(ev); err != nil {
			return nil, err
		}
	}

	return ev, nil
}

// ID returns the unique event identifier.
func (e *Event) ID() string { return e.id }

// Type returns the event category.
func (e *Event) Type() EventType { return e.eventType }

// Severity returns the event severity.
func (e *Event) Severity() Severity { return e.severity }

// Source returns the free-text origin of the event.
func (e *Event) Source() string { return e.source }

// Message returns the human-readable description.
func (e *Event) Message() string { return e.message }

// Timestamp returns the creation time.
func (e *Event) Timestamp() time.Time { return e.timestamp }

// CorrelationID returns the workflow correlation ID, if any.
func (e *Event) CorrelationID() string { return e.correlationID }

// HasCorrelationID reports whether a correlation ID was attached.
func (e *Event) HasCorrelationID() bool { return e.correlationID != "" }

// IsCritical reports whether the event carries Critical severity. Critical
// events are delivered synchronously and their partial failures surface to
// the publisher.
func (e *Event) IsCritical() bool { return e.severity == SeverityCritical }

// Payload returns the opaque payload, or nil.
func (e *Event) Payload() any { return e.payload }

// HasPayload reports whether a payload was attached.
func (e *Event) HasPayload() bool { return e.payload != nil }

// Metadata returns the value stored under key.
func (e *Event) Metadata(key string) (any, bool) {
	value, ok := e.metadata[key]
	return value, ok
}

// MetadataLen returns the number of metadata entries.
func (e *Event) MetadataLen() int { return len(e.metadata) }

// MetadataCopy returns a copy of the metadata map. Mutating the copy does not
// affect the event.
func (e *Event) MetadataCopy() map[string]any {
	out := make(map[string]any, len(e.metadata))
	for key, value := range e.metadata {
		out[key] = value
	}

	return out
}

// Equal reports whether both events carry the same ID.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}

	return e.id == other.id
}

// String renders a compact single-line representation.
func (e *Event) String() string {
	return fmt.Sprintf("Event{id=%s type=%s severity=%s source=%s message=%q}",
		e.id, e.eventType, e.severity, e.source, e.message)
}

// MetadataValue returns the metadata entry under key as type T. The second
// return is false when the key is absent or the value has a different type.
func MetadataValue[T any](e *Event, key string) (T, bool) {
	var zero T

	value, ok := e.metadata[key]
	if !ok {
		return zero, false
	}

	typed, ok := value.(T)
	if !ok {
		return zero, false
	}

	return typed, true
}

// PayloadAs returns the payload as type T. It returns ErrNoPayload when no
// payload was attached and ErrPayloadType on a type mismatch.
func PayloadAs[T any](e *Event) (T, error) {
	var zero T

	if e.payload == nil {
		return zero, ErrNoPayload
	}

	typed, ok := e.payload.(T)
	if !ok {
		return zero, fmt.Errorf("%w: have %T", ErrPayloadType, e.payload)
	}

	return typed, nil
}
