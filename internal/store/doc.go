// Package store provides SQLite-backed storage for staged gateway payments.
//
// One row per external payment id lives in staging_payments. A row is
// created on the first sighting of a payment, refreshed (fetched_at and
// raw_payload only) on later sightings, and stamped with a reconciliation
// verdict by the engine.
//
// # Retention
//
// SQLite has no TTL index, so the store emulates one:
//   - expires_at is written once, on insert, and never updated
//   - every read filters on expires_at > now, so an expired row is never
//     returned even before it is physically deleted
//   - PurgeExpired deletes rows whose expires_at has passed (zero grace)
//   - EnsureExpiryIndex creates the index PurgeExpired and the read filters
//     rely on; the engine calls it at construction and only logs a failure
//
// # Timestamps
//
// Times are stored as fixed-width UTC TEXT (nanosecond precision) so that
// lexical order equals chronological order and range predicates work.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
