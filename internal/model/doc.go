// Package model defines the record types shared by the staging store, the
// ledger adapters, and the reconciliation engine.
//
// This package contains type definitions and the status transition table
// only. Every other internal package imports model; model imports nothing
// internal.
//
// Key constraints:
//   - Money is decimal.Decimal, never float64
//   - Discrepancy values are strings so persisted results re-read identically
//   - JSON tags use camelCase (the staging payload format of the dashboard)
//   - ExpiresAt is assigned once, at first insertion
package model
