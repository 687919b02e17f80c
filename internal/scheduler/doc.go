// Package scheduler runs the review operations against a loaded Snapshot.
//
// Each operation is a synchronous in-memory computation over exactly one
// snapshot. Mutating operations (Record, Register, BulkRegister,
// RecordSession) change the snapshot in place; the caller persists it.
//
// # Error channel
//
// Domain failures (unknown card, rating outside 1..4) are returned as data in
// a Result alongside success values, never as a Go error. Callers inspect
// Result.Err. Failures that must abort before mutation (malformed input,
// invalid configuration, persistence errors) belong to the store and CLI
// layers and are ordinary Go errors.
//
// # Review ordering
//
// Record computes the new stability from the pre-review difficulty and only
// then commits the new difficulty. Swapping those steps changes schedules.
package scheduler
