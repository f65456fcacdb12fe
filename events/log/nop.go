package log

import "context"

// NopLogger is a no-op logger implementation.
type NopLogger struct{}

// NewNop creates a no-op logger.
func NewNop() Logger {
	return &NopLogger{}
}

// Log drops all entries.
func (l *NopLogger) Log(_ context.Context, _ Level, _ string, _ ...Field) {}

// With returns the same no-op logger.
//
//nolint:ireturn
func (l *NopLogger) With(_ ...Field) Logger { return l }

// Enabled always returns false.
func (l *NopLogger) Enabled(_ Level) bool { return false }
