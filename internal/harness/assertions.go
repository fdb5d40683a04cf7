package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/payrecon/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Payment  string // Staging record id, if the assertion names one
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Payment != "" {
		fmt.Fprintf(&buf, " [%s]", e.Payment)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s\n", e.Expected, e.Actual)
	return buf.String()
}

// evaluateAssertions returns one error per failed assertion.
func evaluateAssertions(assertions []Assertion, r *Result) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluate(a, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluate(a Assertion, r *Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Payment: a.Payment, Expected: expected, Actual: actual}
	}

	if a.Type == AssertStats {
		return evaluateStats(a, r.Stats, fail)
	}

	rec, found := findRecord(r.Records, a.Payment)
	if a.Type == AssertAbsent {
		if found {
			return fail("no live record", fmt.Sprintf("record with status %s", rec.Status))
		}
		return nil
	}
	if !found {
		return fail("a live record", "no record")
	}

	switch a.Type {
	case AssertStatus:
		if string(rec.Status) != a.Status {
			return fail(a.Status, string(rec.Status))
		}
	case AssertMatchFound:
		actual := rec.ReconciliationResult != nil && rec.ReconciliationResult.MatchFound
		if actual != *a.MatchFound {
			return fail(fmt.Sprintf("match_found=%t", *a.MatchFound), fmt.Sprintf("match_found=%t", actual))
		}
	case AssertDiscrepancies:
		var actual []string
		if rec.ReconciliationResult != nil {
			for _, d := range rec.ReconciliationResult.Discrepancies {
				actual = append(actual, d.Field)
			}
		}
		if !slices.Equal(actual, a.Fields) {
			return fail(fmt.Sprintf("%v", a.Fields), fmt.Sprintf("%v", actual))
		}
	case AssertInconclusive:
		var actual []string
		if rec.ReconciliationResult != nil {
			actual = rec.ReconciliationResult.Inconclusive
		}
		if !slices.Equal(actual, a.Fields) {
			return fail(fmt.Sprintf("%v", a.Fields), fmt.Sprintf("%v", actual))
		}
	}
	return nil
}

func evaluateStats(a Assertion, st model.StatsSummary, fail func(string, string) error) error {
	actual := map[string]int{
		"total":         st.Total,
		"new":           st.New,
		"checked":       st.Checked,
		"completed":     st.Completed,
		"discrepancies": st.Discrepancies,
		"expiringIn24h": st.ExpiringIn24h,
		"unmatched":     st.Unmatched,
	}

	keys := make([]string, 0, len(a.Stats))
	for k := range a.Stats {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return fail(fmt.Sprintf("known stats key, got %q", k), "unknown key")
		}
		if got != a.Stats[k] {
			return fail(fmt.Sprintf("%s=%d", k, a.Stats[k]), fmt.Sprintf("%s=%d", k, got))
		}
	}
	return nil
}

func findRecord(recs []model.StagingRecord, id string) (model.StagingRecord, bool) {
	for _, rec := range recs {
		if rec.ExternalPaymentID == id {
			return rec, true
		}
	}
	return model.StagingRecord{}, false
}
