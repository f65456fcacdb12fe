// Package backoff computes capped exponential retry delays with optional
// jitter and provides context-aware sleeping for the retry executor.
package backoff
