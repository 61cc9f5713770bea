package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// fakeTrackingSheet is an in-memory TrackingSheet for reconciler tests.
type fakeTrackingSheet struct {
	TrackingSheet
	rows    []*domain.HistoryRecord
	inserts int
	updates int
}

func (f *fakeTrackingSheet) FindHistoryRecord(_ context.Context, threadID string) (*domain.HistoryRecord, error) {
	for _, r := range f.rows {
		if r.ThreadID == threadID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTrackingSheet) InsertHistoryRecord(_ context.Context, rec *domain.HistoryRecord) error {
	f.inserts++
	copied := *rec
	copied.Row = len(f.rows) + 2
	rec.Row = copied.Row
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeTrackingSheet) UpdateHistoryRecord(_ context.Context, rec *domain.HistoryRecord) error {
	f.updates++
	for i, r := range f.rows {
		if r.Row == rec.Row {
			copied := *rec
			f.rows[i] = &copied
			return nil
		}
	}
	return nil
}

func record(threadID string, status domain.Status) *domain.HistoryRecord {
	return &domain.HistoryRecord{ThreadID: threadID, Status: status, Priority: 3, Subject: "s"}
}

func TestReconcileAddsUnknownThread(t *testing.T) {
	sheet := &fakeTrackingSheet{}
	r := NewHistoryReconciler(sheet, testLogger())

	outcome, err := r.Reconcile(context.Background(), record("t1", domain.StatusNeedsReply))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAdded, outcome)
	assert.Equal(t, 1, sheet.inserts)
}

func TestReconcileSameStatusIsUnchanged(t *testing.T) {
	sheet := &fakeTrackingSheet{}
	r := NewHistoryReconciler(sheet, testLogger())
	ctx := context.Background()

	_, err := r.Reconcile(ctx, record("t1", domain.StatusNeedsReply))
	require.NoError(t, err)

	outcome, err := r.Reconcile(ctx, record("t1", domain.StatusNeedsReply))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, outcome)
	// no second write
	assert.Equal(t, 1, sheet.inserts)
	assert.Equal(t, 0, sheet.updates)
}

func TestReconcileStatusTransitionUpdatesInPlace(t *testing.T) {
	sheet := &fakeTrackingSheet{}
	r := NewHistoryReconciler(sheet, testLogger())
	ctx := context.Background()

	_, err := r.Reconcile(ctx, record("t1", domain.StatusNeedsReply))
	require.NoError(t, err)

	rec := record("t1", domain.StatusReplied)
	outcome, err := r.Reconcile(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, outcome)

	// still exactly one row for the thread, same position
	assert.Len(t, sheet.rows, 1)
	assert.Equal(t, 2, rec.Row)
	assert.Equal(t, domain.StatusReplied, sheet.rows[0].Status)
}

func TestReconcileIndependentThreadsGetOwnRows(t *testing.T) {
	sheet := &fakeTrackingSheet{}
	r := NewHistoryReconciler(sheet, testLogger())
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := r.Reconcile(ctx, record(id, domain.StatusNoReply))
		require.NoError(t, err)
	}
	assert.Len(t, sheet.rows, 3)
}

func TestComputeStatusRepliedWins(t *testing.T) {
	// a detected reply beats whatever the classifier said
	assert.Equal(t, domain.StatusReplied, domain.ComputeStatus(true, true))
	assert.Equal(t, domain.StatusReplied, domain.ComputeStatus(true, false))
	assert.Equal(t, domain.StatusNeedsReply, domain.ComputeStatus(false, true))
	assert.Equal(t, domain.StatusNoReply, domain.ComputeStatus(false, false))
}
