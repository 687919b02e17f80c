// Package store persists review state snapshots.
//
// Two backends implement Store:
//   - FileStore: a single JSON document, the default and the format shared
//     with older tooling
//   - SQLiteStore: the same snapshot normalized into SQLite tables
//
// # Atomicity
//
// Every Save replaces the whole snapshot so that readers observe either the
// old or the new complete state. FileStore writes a temporary file in the
// target directory, fsyncs it and renames it over the target; the temporary
// file is removed on every failure path. SQLiteStore rewrites all tables
// inside one transaction.
//
// # Concurrency
//
// There is no lock around the load-mutate-save cycle. Two invocations that
// mutate the same state concurrently can lose an update.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
