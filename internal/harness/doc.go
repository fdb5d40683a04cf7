// Package harness runs reconciliation scenarios end to end.
//
// A scenario describes gateway payments, ledger rows, a sequence of steps
// (ingest, reconcile, complete, clock moves, purge), and assertions on the
// resulting staging records. The harness drives the real engine against a
// temporary SQLite staging store with an in-memory ledger and a paged fake
// gateway, so every scenario exercises the same code paths as the CLI.
//
// # Scenario Format
//
//	name: amount_mismatch
//	description: "A ledger amount five dollars off is a discrepancy"
//	now: 2026-03-01T12:00:00Z
//	page_size: 2
//	payments:
//	  - id: P1
//	    amount: 5000
//	    status: COMPLETED
//	    card_last4: "4242"
//	    updated_at: 2026-03-01T12:00:00Z
//	ledger:
//	  - payment_id: P1
//	    gross_amount: "55.00"
//	    status: paid
//	steps: [ingest, reconcile]
//	assertions:
//	  - type: status
//	    payment: P1
//	    status: discrepancy
//
// # Steps
//
//	ingest              fetch every payment page into staging
//	reconcile           re-check every record not yet completed
//	reconcile_new       check only records with status new
//	complete:<id>       mark a checked record completed
//	advance:<duration>  move the clock forward
//	purge               delete expired records
//
// # Golden Files
//
// RunWithGolden snapshots runs, records, and stats as indented JSON under
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
