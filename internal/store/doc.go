// Package store provides SQLite-backed persistence for harness runs.
//
// The store keeps an append-only run log with:
//   - Runs: one row per scenario run (outcome, trace digest, probe settings)
//   - Samples: the allocation figures of each measurement attempt
//
// A run is claimed by its token: writing an already recorded token is a
// no-op, so re-recording a run never duplicates rows or samples.
//
// All ordering uses the autoincrement row id, never created_at, so "latest
// run" and "latest passing baseline" stay deterministic even when rows share
// a creation instant.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Trace digests are computed in internal/trace via canonical JSON and
// SHA-256 with domain separation; the store persists them verbatim.
package store
