// Package engine implements payment ingestion and reconciliation.
//
// The engine exposes:
//
//  1. Ingest pages through the gateway's list endpoint for a time window
//     and upserts every payment into the staging store. New ids are
//     inserted with status=new; known ids only get fetched_at and the raw
//     payload refreshed.
//  2. Reconcile takes a batch of staging records, looks each one up in the
//     authoritative ledger by exact payment id, compares amount, status,
//     card suffix and last-update time, and stores the verdict together with
//     the status it drives (checked or discrepancy).
//  3. Stats and Discrepancies read the staging store for the dashboard.
//  4. Complete marks a checked record as settled; completed is terminal.
//
// Runs are sequential: one page, then one record at a time, each store call
// awaited before the next. There is no locking between runs; when two runs
// touch the same record the last writer wins.
//
// Ingest and Reconcile never return an error. Per-record failures are collected in the
// returned stats and processing continues; a failed page fetch ends the
// ingest run early with whatever was counted so far. A record that failed
// keeps its status and is picked up again by the next run.
package engine
