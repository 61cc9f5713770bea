package usecase

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// HistoryReconciler merges freshly classified messages into the cumulative
// thread-keyed tracking store. At most one record exists per thread id;
// repeated runs update in place instead of appending duplicates.
type HistoryReconciler struct {
	sheet  TrackingSheet
	logger *log.Logger
}

func NewHistoryReconciler(sheet TrackingSheet, logger *log.Logger) *HistoryReconciler {
	return &HistoryReconciler{sheet: sheet, logger: logger.WithPrefix("reconcile")}
}

// Reconcile writes one record into the store and reports what happened:
// added for a thread seen for the first time, updated when the stored status
// differs from the new one, unchanged when it matches (no write, no
// spreadsheet churn). If two messages in one batch share a thread id the
// later one wins. rec.Status must already be computed via
// domain.ComputeStatus.
func (r *HistoryReconciler) Reconcile(ctx context.Context, rec *domain.HistoryRecord) (domain.ReconcileOutcome, error) {
	existing, err := r.sheet.FindHistoryRecord(ctx, rec.ThreadID)
	if err != nil {
		return "", fmt.Errorf("look up thread %s: %w", rec.ThreadID, err)
	}

	if existing == nil {
		if err := r.sheet.InsertHistoryRecord(ctx, rec); err != nil {
			return "", fmt.Errorf("insert thread %s: %w", rec.ThreadID, err)
		}
		r.logger.Debug("history row added", "thread", rec.ThreadID, "status", rec.Status)
		return domain.OutcomeAdded, nil
	}

	if existing.Status == rec.Status {
		return domain.OutcomeUnchanged, nil
	}

	rec.Row = existing.Row
	if err := r.sheet.UpdateHistoryRecord(ctx, rec); err != nil {
		return "", fmt.Errorf("update thread %s: %w", rec.ThreadID, err)
	}
	r.logger.Debug("history row updated", "thread", rec.ThreadID, "from", existing.Status, "to", rec.Status)
	return domain.OutcomeUpdated, nil
}
