package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusChecked, true},
		{StatusNew, StatusDiscrepancy, true},
		{StatusNew, StatusCompleted, false},
		{StatusChecked, StatusDiscrepancy, true},
		{StatusDiscrepancy, StatusChecked, true},
		{StatusChecked, StatusCompleted, true},
		{StatusDiscrepancy, StatusCompleted, false},
		{StatusCompleted, StatusChecked, false},
		{StatusChecked, StatusNew, false},
		{Status("bogus"), StatusChecked, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransition_Invalid(t *testing.T) {
	got, err := Transition(StatusCompleted, StatusChecked)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
	assert.Equal(t, StatusCompleted, got)
	assert.Contains(t, err.Error(), "completed -> checked")
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusNew.Terminal())
	assert.False(t, Status("bogus").Terminal())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("discrepancy")
	require.NoError(t, err)
	assert.Equal(t, StatusDiscrepancy, st)

	_, err = ParseStatus("unmatched")
	assert.Error(t, err)
}

func TestVerdictStatus(t *testing.T) {
	assert.Equal(t, StatusChecked, VerdictStatus(ReconciliationResult{}))
	assert.Equal(t, StatusDiscrepancy, VerdictStatus(ReconciliationResult{
		Discrepancies: []Discrepancy{{Field: FieldAmount}},
	}))
}

func TestNewStagingRecord_SetsExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewStagingRecord("P1", []byte(`{"id":"P1"}`), now)

	assert.Equal(t, StatusNew, rec.Status)
	assert.Equal(t, now, rec.FetchedAt)
	assert.Equal(t, now.Add(7*24*time.Hour), rec.ExpiresAt)
	assert.Nil(t, rec.ReconciliationResult)
}
