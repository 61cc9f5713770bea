package usecase

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// LabelPlan is one combined label mutation: the set to add and the set to
// remove, issued as a single provider call so a failure can never leave a
// half-applied status behind.
type LabelPlan struct {
	Add    []string
	Remove []string
}

// PlanLabels computes the mutation that moves a message to (status, priority):
// add the status label and the mapped priority label, remove every other
// status and priority label. Status labels are mutually exclusive, as are
// priority labels; reapplying the same plan is a no-op on the provider side.
func PlanLabels(status domain.Status, priority int) LabelPlan {
	add := []string{domain.StatusLabel(status), domain.PriorityLabel(priority)}

	classification := append(domain.StatusLabels(), domain.PriorityLabels()...)
	remove := lo.Without(classification, add...)

	return LabelPlan{Add: add, Remove: remove}
}

// RemoveAllPlan clears every classification label, processed marker included.
// Used before reclassifying a message from scratch.
func RemoveAllPlan() LabelPlan {
	return LabelPlan{Remove: domain.AllLabels()}
}

// LabelApplier drives label mutations through the MailStore. Per-message
// failures are logged and returned but callers are expected to keep going
// with the rest of the batch.
type LabelApplier struct {
	mail   MailStore
	logger *log.Logger
}

func NewLabelApplier(mail MailStore, logger *log.Logger) *LabelApplier {
	return &LabelApplier{mail: mail, logger: logger.WithPrefix("labels")}
}

// Apply moves one message into the (status, priority) label state.
func (a *LabelApplier) Apply(ctx context.Context, messageID string, status domain.Status, priority int) error {
	plan := PlanLabels(status, priority)
	if err := a.mail.ModifyLabels(ctx, messageID, plan.Add, plan.Remove); err != nil {
		a.logger.Error("label apply failed", "message", messageID, "status", status, "priority", priority, "err", err)
		return fmt.Errorf("apply labels to %s: %w", messageID, err)
	}
	return nil
}

// RemoveAll strips every classification label from a message.
func (a *LabelApplier) RemoveAll(ctx context.Context, messageID string) error {
	plan := RemoveAllPlan()
	if err := a.mail.ModifyLabels(ctx, messageID, nil, plan.Remove); err != nil {
		return fmt.Errorf("remove labels from %s: %w", messageID, err)
	}
	return nil
}

// MarkProcessed suppresses the messages from future fetch batches.
func (a *LabelApplier) MarkProcessed(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return a.mail.MarkProcessed(ctx, messageIDs)
}
