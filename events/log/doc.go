// Package log defines the structured logging contract used across lib-events.
//
// The Logger interface is intentionally small: leveled, context-aware, with
// strongly-typed fields. The zap subpackage provides the production
// implementation; NewNop returns a silent logger for tests and callers that
// opt out of logging.
package log
