package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/payrecon/internal/model"
)

// Snapshot is the golden-file view of a scenario run.
type Snapshot struct {
	Scenario string             `json:"scenario"`
	Runs     []RunSnapshot      `json:"runs"`
	Records  []RecordSnapshot   `json:"records"`
	Stats    model.StatsSummary `json:"stats"`
}

// RecordSnapshot is the golden-file view of one staging record.
// Timestamps are left out; the fixed clock makes them redundant.
type RecordSnapshot struct {
	ID            string              `json:"id"`
	Status        model.Status        `json:"status"`
	Checked       bool                `json:"checked"`
	MatchFound    bool                `json:"matchFound"`
	Discrepancies []model.Discrepancy `json:"discrepancies"`
	Inconclusive  []string            `json:"inconclusive"`
}

// NewSnapshot builds the golden view of r.
func NewSnapshot(name string, r *Result) Snapshot {
	snap := Snapshot{
		Scenario: name,
		Runs:     r.Runs,
		Records:  make([]RecordSnapshot, 0, len(r.Records)),
		Stats:    r.Stats,
	}
	if snap.Runs == nil {
		snap.Runs = []RunSnapshot{}
	}
	for _, rec := range r.Records {
		rs := RecordSnapshot{
			ID:            rec.ExternalPaymentID,
			Status:        rec.Status,
			Discrepancies: []model.Discrepancy{},
			Inconclusive:  []string{},
		}
		if res := rec.ReconciliationResult; res != nil {
			rs.Checked = true
			rs.MatchFound = res.MatchFound
			if len(res.Discrepancies) > 0 {
				rs.Discrepancies = res.Discrepancies
			}
			if len(res.Inconclusive) > 0 {
				rs.Inconclusive = res.Inconclusive
			}
		}
		snap.Records = append(snap.Records, rs)
	}
	return snap
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check assertions too.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := json.MarshalIndent(NewSnapshot(name, result), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
