// Package zap provides the production log.Logger implementation backed by
// go.uber.org/zap, with OpenTelemetry trace correlation and a runtime
// adjustable level.
package zap
