// Package storage persists reminder channel state and the operator audit log.
//
// Two drivers are available:
//   - "file": a YAML state document written atomically plus a JSON Lines audit log
//   - "sqlite": a single SQLite database (pure Go driver, no cgo)
//
// Persistence is best-effort from the caller's point of view: a missing state
// loads as empty and a corrupt one reports ErrCorrupt.
package storage
