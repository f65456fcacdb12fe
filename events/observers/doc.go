// Package observers provides ready-made observers for common cross-cutting
// concerns: a logging observer that records every event at a level matching
// its severity, and a security observer that watches authentication traffic
// for brute-force and rate-limit anomalies.
package observers
