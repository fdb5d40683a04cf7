package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/payrecon/internal/model"
)

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t, fixedNow)

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGet_HidesExpired(t *testing.T) {
	now := baseTime
	s := createTestStore(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, createTestRecord("P1", baseTime)))

	now = baseTime.Add(model.RetentionWindow - time.Nanosecond)
	_, err := s.Get(ctx, "P1")
	require.NoError(t, err)

	now = baseTime.Add(model.RetentionWindow)
	_, err = s.Get(ctx, "P1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func seedStatuses(t *testing.T, s *Store, statuses map[string]model.Status) {
	t.Helper()
	ctx := context.Background()
	for id, st := range statuses {
		rec := createTestRecord(id, baseTime)
		rec.Status = st
		require.NoError(t, s.Insert(ctx, rec))
	}
}

func TestCandidates_OnlyNew(t *testing.T) {
	s := createTestStore(t, fixedNow)
	seedStatuses(t, s, map[string]model.Status{
		"A": model.StatusNew,
		"B": model.StatusChecked,
		"C": model.StatusNew,
		"D": model.StatusDiscrepancy,
	})

	got, err := s.Candidates(context.Background(), true, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "C"}, ids(got))
}

func TestCandidates_AllExcludesCompleted(t *testing.T) {
	s := createTestStore(t, fixedNow)
	seedStatuses(t, s, map[string]model.Status{
		"A": model.StatusNew,
		"B": model.StatusChecked,
		"C": model.StatusCompleted,
		"D": model.StatusDiscrepancy,
	})

	got, err := s.Candidates(context.Background(), false, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "D"}, ids(got))
}

func TestCandidates_InsertionOrderAndLimit(t *testing.T) {
	s := createTestStore(t, fixedNow)
	ctx := context.Background()
	for _, id := range []string{"Z", "A", "M"} {
		require.NoError(t, s.Insert(ctx, createTestRecord(id, baseTime)))
	}

	got, err := s.Candidates(ctx, false, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "A"}, ids(got))
}

func TestCandidates_NewFirst(t *testing.T) {
	s := createTestStore(t, fixedNow)
	ctx := context.Background()
	for _, tc := range []struct {
		id     string
		status model.Status
	}{
		{"old-checked", model.StatusChecked},
		{"old-discrepancy", model.StatusDiscrepancy},
		{"fresh-1", model.StatusNew},
		{"old-checked-2", model.StatusChecked},
		{"fresh-2", model.StatusNew},
	} {
		rec := createTestRecord(tc.id, baseTime)
		rec.Status = tc.status
		require.NoError(t, s.Insert(ctx, rec))
	}

	got, err := s.Candidates(ctx, false, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-1", "fresh-2", "old-checked"}, ids(got))
}

func TestDiscrepancies_SortedByFetchedAtDesc(t *testing.T) {
	s := createTestStore(t, fixedNow)
	ctx := context.Background()

	for i, id := range []string{"first", "second", "third"} {
		rec := createTestRecord(id, baseTime.Add(time.Duration(i)*time.Minute))
		rec.Status = model.StatusDiscrepancy
		require.NoError(t, s.Insert(ctx, rec))
	}
	require.NoError(t, s.Insert(ctx, createTestRecord("clean", baseTime.Add(time.Hour))))

	got, err := s.Discrepancies(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, ids(got))

	got, err = s.Discrepancies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"third"}, ids(got))
}

func TestDiscrepancies_EmptyNotNil(t *testing.T) {
	s := createTestStore(t, fixedNow)

	got, err := s.Discrepancies(context.Background(), 50)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStats_Histogram(t *testing.T) {
	s := createTestStore(t, fixedNow)
	ctx := context.Background()
	seedStatuses(t, s, map[string]model.Status{
		"A": model.StatusNew,
		"B": model.StatusNew,
		"C": model.StatusChecked,
		"D": model.StatusDiscrepancy,
	})

	st, err := s.Stats(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, model.StatsSummary{Total: 4, New: 2, Checked: 1, Discrepancies: 1}, st)
}

func TestStats_ExpiringAndUnmatched(t *testing.T) {
	s := createTestStore(t, fixedNow)
	ctx := context.Background()

	// Fetched 6.5 days ago: expires in 12h.
	old := createTestRecord("OLD", baseTime.Add(-model.RetentionWindow+12*time.Hour))
	require.NoError(t, s.Insert(ctx, old))
	require.NoError(t, s.Insert(ctx, createTestRecord("FRESH", baseTime)))
	require.NoError(t, s.SaveResult(ctx, "FRESH", model.StatusChecked, model.ReconciliationResult{
		CheckedAt:  baseTime,
		MatchFound: false,
	}))

	st, err := s.Stats(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.ExpiringIn24h)
	assert.Equal(t, 1, st.Checked)
	assert.Equal(t, 1, st.Unmatched)
}

func TestStats_Empty(t *testing.T) {
	s := createTestStore(t, fixedNow)

	st, err := s.Stats(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, model.StatsSummary{}, st)
}

func ids(recs []model.StagingRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ExternalPaymentID
	}
	return out
}
