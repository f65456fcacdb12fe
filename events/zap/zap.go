package zap

import (
	"context"
	"fmt"

	logpkg "github.com/LerianStudio/lib-events/events/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment controls the baseline logger profile.
type Environment string

// Supported environments. Production uses JSON encoding; development and
// local use console encoding with colored levels.
const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
	EnvironmentLocal       Environment = "local"
)

// Config contains the logger initialization inputs.
type Config struct {
	Environment Environment
	Level       string
}

func (c Config) validate() error {
	switch c.Environment {
	case EnvironmentProduction, EnvironmentDevelopment, EnvironmentLocal:
		return nil
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
}

// Logger is a structured logger implementing log.Logger.
type Logger struct {
	logger      *zap.Logger
	atomicLevel zap.AtomicLevel
}

// Compile-time assertion: *Logger implements log.Logger.
var _ logpkg.Logger = (*Logger)(nil)

// New creates a structured logger for the given environment and level.
func New(cfg Config) (*Logger, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid zap config: %w", err)
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := logpkg.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}

		level = logLevelToZap(parsed)
	}

	baseConfig := buildConfigByEnvironment(cfg.Environment)
	atomicLevel := zap.NewAtomicLevelAt(level)
	baseConfig.Level = atomicLevel
	baseConfig.DisableStacktrace = true

	logger, err := baseConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &Logger{logger: logger, atomicLevel: atomicLevel}, nil
}

// Wrap adapts an existing *zap.Logger. Intended for tests and hosts that
// already manage their own zap configuration.
func Wrap(logger *zap.Logger) *Logger {
	return &Logger{logger: logger, atomicLevel: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

func buildConfigByEnvironment(env Environment) zap.Config {
	if env == EnvironmentProduction {
		return zap.NewProductionConfig()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return cfg
}

func (l *Logger) must() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}

	return l.logger
}

// Log implements log.Logger. If ctx carries an active OpenTelemetry span,
// trace_id and span_id are appended so log entries correlate with traces.
func (l *Logger) Log(ctx context.Context, level logpkg.Level, msg string, fields ...logpkg.Field) {
	zapFields := logFieldsToZap(fields)

	if ctx != nil {
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			zapFields = append(zapFields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
	}

	switch level {
	case logpkg.LevelDebug:
		l.must().Debug(msg, zapFields...)
	case logpkg.LevelInfo:
		l.must().Info(msg, zapFields...)
	case logpkg.LevelWarn:
		l.must().Warn(msg, zapFields...)
	case logpkg.LevelError:
		l.must().Error(msg, zapFields...)
	default:
		l.must().Info(msg, zapFields...)
	}
}

// With returns a child logger with additional structured fields.
//
//nolint:ireturn
func (l *Logger) With(fields ...logpkg.Field) logpkg.Logger {
	child := &Logger{logger: l.must().With(logFieldsToZap(fields)...)}
	if l != nil {
		child.atomicLevel = l.atomicLevel
	}

	return child
}

// Enabled reports whether the logger would emit an entry at the given level.
func (l *Logger) Enabled(level logpkg.Level) bool {
	return l.must().Core().Enabled(logLevelToZap(level))
}

// SetLevel adjusts the logger level at runtime.
func (l *Logger) SetLevel(level logpkg.Level) {
	l.atomicLevel.SetLevel(logLevelToZap(level))
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.must().Sync()
}

func logLevelToZap(level logpkg.Level) zapcore.Level {
	switch level {
	case logpkg.LevelDebug:
		return zapcore.DebugLevel
	case logpkg.LevelInfo:
		return zapcore.InfoLevel
	case logpkg.LevelWarn:
		return zapcore.WarnLevel
	case logpkg.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func logFieldsToZap(fields []logpkg.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))

	for _, field := range fields {
		if err, ok := field.Value.(error); ok && field.Key == "error" {
			zapFields = append(zapFields, zap.Error(err))
			continue
		}

		zapFields = append(zapFields, zap.Any(field.Key, field.Value))
	}

	return zapFields
}
