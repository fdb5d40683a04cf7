package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/payrecon/internal/gateway"
	"github.com/roach88/payrecon/internal/model"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{"all_fields_match", "amount_mismatch", "lifecycle", "expiry"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			for _, e := range result.Errors {
				t.Error(e)
			}
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_FailedAssertionsReported(t *testing.T) {
	s := loadTestScenario(t, "amount_mismatch")
	s.Assertions = []Assertion{
		{Type: AssertStatus, Payment: "P1", Status: "checked"},
		{Type: AssertAbsent, Payment: "P1"},
		{Type: AssertStats, Stats: map[string]int{"total": 3}},
		{Type: AssertStatus, Payment: "P9", Status: "new"},
	}

	result, err := Run(context.Background(), s, t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)

	var ae *AssertionError
	require.ErrorAs(t, result.Errors[0], &ae)
	assert.Equal(t, "checked", ae.Expected)
	assert.Equal(t, "discrepancy", ae.Actual)
	assert.Contains(t, ae.Error(), "Assertion failed: status [P1]")
}

func TestRun_RecordsInScenarioOrder(t *testing.T) {
	s := loadTestScenario(t, "lifecycle")

	result, err := Run(context.Background(), s, t.TempDir())
	require.NoError(t, err)

	var ids []string
	for _, rec := range result.Records {
		ids = append(ids, rec.ExternalPaymentID)
	}
	assert.Equal(t, []string{"P1", "P2", "P3", "P4", "P5"}, ids)
	assert.Len(t, result.Runs, len(s.Steps))
	assert.Equal(t, model.StatusCompleted, result.Records[0].Status)
}

func TestPagedGateway(t *testing.T) {
	s := &Scenario{
		PageSize: 2,
		Payments: []PaymentFixture{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}
	g := newPagedGateway(s)
	ctx := context.Background()

	p1, err := g.ListPayments(ctx, gateway.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, p1.Payments, 2)
	assert.Equal(t, "1", p1.Cursor)

	p2, err := g.ListPayments(ctx, gateway.ListRequest{Cursor: p1.Cursor})
	require.NoError(t, err)
	assert.Len(t, p2.Payments, 1)
	assert.Empty(t, p2.Cursor)

	_, err = g.ListPayments(ctx, gateway.ListRequest{Cursor: "7"})
	assert.Error(t, err)

	// Repeatable.
	again, err := g.ListPayments(ctx, gateway.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, p1, again)
}

func TestPagedGateway_Empty(t *testing.T) {
	g := newPagedGateway(&Scenario{})
	page, err := g.ListPayments(context.Background(), gateway.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Payments)
	assert.Empty(t, page.Cursor)
}
