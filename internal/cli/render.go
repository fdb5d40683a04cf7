package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/payrecon/internal/engine"
	"github.com/roach88/payrecon/internal/model"
)

// line writes one "  label:  value" row with labels aligned.
func line(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %-16s %v\n", label+":", value)
}

func renderIngest(w io.Writer, s engine.IngestStats) {
	fmt.Fprintf(w, "Ingest run %s\n", s.RunID)
	line(w, "fetched", s.FetchedCount)
	line(w, "new", s.NewCount)
	line(w, "errors", len(s.Errors))
	for _, e := range s.Errors {
		fmt.Fprintf(w, "    - %s\n", e)
	}
}

func renderReconcile(w io.Writer, s engine.ReconcileStats) {
	fmt.Fprintf(w, "Reconcile run %s\n", s.RunID)
	line(w, "processed", s.Processed)
	line(w, "matched", s.Matched)
	line(w, "discrepancies", s.Discrepancies)
	line(w, "unmatched", s.Unmatched)
	line(w, "errors", s.Errors)
}

func renderStats(w io.Writer, s model.StatsSummary) {
	fmt.Fprintln(w, "Staging payments")
	line(w, "total", s.Total)
	line(w, "new", s.New)
	line(w, "checked", s.Checked)
	line(w, "discrepancy", s.Discrepancies)
	line(w, "completed", s.Completed)
	line(w, "unmatched", s.Unmatched)
	line(w, "expiring in 24h", s.ExpiringIn24h)
}

func renderDiscrepancies(w io.Writer, recs []model.StagingRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No discrepancies.")
		return
	}
	for i, rec := range recs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (fetched %s)\n", rec.ExternalPaymentID, rec.FetchedAt.Format(time.RFC3339))
		res := rec.ReconciliationResult
		if res == nil {
			continue
		}
		if res.AuthoritativeRef != "" {
			fmt.Fprintf(w, "  ledger ref: %s\n", res.AuthoritativeRef)
		}
		for _, d := range res.Discrepancies {
			fmt.Fprintf(w, "  %s: gateway=%s ledger=%s (%s)\n", d.Field, orDash(d.ExternalValue), orDash(d.InternalValue), d.Reason)
		}
		if len(res.Inconclusive) > 0 {
			fmt.Fprintf(w, "  inconclusive: %v\n", res.Inconclusive)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
