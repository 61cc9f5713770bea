package usecase

import (
	"context"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// MailStore is the email transport the pipeline consumes. Batching (inbox
// windows, per-counterpart history windows) happens behind this interface;
// the core only consumes pre-fetched slices.
type MailStore interface {
	// Profile returns the user's own address.
	Profile(ctx context.Context) (string, error)
	FetchInbox(ctx context.Context, max int, excludeProcessed bool) ([]domain.Message, error)
	FetchSent(ctx context.Context, max int) ([]domain.Message, error)
	// FetchMatching returns recent messages to or from the counterpart.
	FetchMatching(ctx context.Context, counterpart string, max int) ([]domain.Message, error)
	// ModifyLabels applies one combined add/remove mutation to a message.
	ModifyLabels(ctx context.Context, messageID string, add, remove []string) error
	MarkProcessed(ctx context.Context, messageIDs []string) error
	// CheckReplied reports whether the user has sent a reply in the thread.
	CheckReplied(ctx context.Context, threadID string) (bool, error)
	CreateDraft(ctx context.Context, threadID, to, subject, htmlBody string) (string, error)
	SendDraft(ctx context.Context, draftID string) error
	SendSummaryReport(ctx context.Context, subject, htmlBody string) error
	// CollectSenderStats scans a bounded inbox+sent window and returns
	// per-sender profiles with accumulated stats. priorities maps sender
	// address to priorities assigned during this run, used for the
	// high-priority counters.
	CollectSenderStats(ctx context.Context, maxEmails int, priorities map[string][]int) (map[string]*domain.SenderProfile, error)
}

// TrackingSheet is the spreadsheet persistence the reconciler and the sender
// tab write through. Lookups return nil when nothing matches.
type TrackingSheet interface {
	FindHistoryRecord(ctx context.Context, threadID string) (*domain.HistoryRecord, error)
	InsertHistoryRecord(ctx context.Context, rec *domain.HistoryRecord) error
	// UpdateHistoryRecord overwrites the row identified by rec.Row in place.
	UpdateHistoryRecord(ctx context.Context, rec *domain.HistoryRecord) error
	// UpsertSenderProfile creates or updates a sender row, preserving the
	// human-owned manual grade and note cells on update.
	UpsertSenderProfile(ctx context.Context, profile *domain.SenderProfile) error
	// SenderGradeScores returns address → grade score for manually graded
	// senders only.
	SenderGradeScores(ctx context.Context) (map[string]int, error)
	// DraftsMarkedForSend returns rows whose send checkbox is set.
	DraftsMarkedForSend(ctx context.Context) ([]*domain.HistoryRecord, error)
	MarkRowReplied(ctx context.Context, row int) error
}
