package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/repository"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/llm"
)

const (
	conversationWindow = 20
	sentStyleWindow    = 50
	draftContextLimit  = 2
)

// StyleRetriever is an optional vector index over sent mail. Queries return
// message ids which the pipeline resolves against the current sent window.
type StyleRetriever interface {
	IndexSentMail(ctx context.Context, msgs []domain.Message) error
	SimilarSent(ctx context.Context, query string, limit int) ([]string, error)
}

// Options are the run-level knobs.
type Options struct {
	MaxEmails       int
	SenderScanDepth int
	// SendSummary mails an HTML report to the user after the run.
	SendSummary bool
}

// Pipeline is the batch triage run: fetch, classify, score, label, draft,
// reconcile. Single-threaded and partial-failure tolerant: one bad message
// never aborts the batch, but a classifier failure does (the whole batch
// would be garbage without it).
type Pipeline struct {
	mail       MailStore
	sheet      TrackingSheet
	classifier llm.Classifier
	styles     *StyleLearner
	labels     *LabelApplier
	reconciler *HistoryReconciler
	summaries  repository.SummaryCache
	runs       repository.RunLog
	retriever  StyleRetriever // nil when the style index is disabled
	logger     *log.Logger
	opts       Options
}

func NewPipeline(
	mail MailStore,
	sheet TrackingSheet,
	classifier llm.Classifier,
	styles *StyleLearner,
	labels *LabelApplier,
	reconciler *HistoryReconciler,
	summaries repository.SummaryCache,
	runs repository.RunLog,
	retriever StyleRetriever,
	logger *log.Logger,
	opts Options,
) *Pipeline {
	return &Pipeline{
		mail:       mail,
		sheet:      sheet,
		classifier: classifier,
		styles:     styles,
		labels:     labels,
		reconciler: reconciler,
		summaries:  summaries,
		runs:       runs,
		retriever:  retriever,
		logger:     logger.WithPrefix("pipeline"),
		opts:       opts,
	}
}

// Run executes one full triage batch and returns its report.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{StartedAt: time.Now()}

	me, err := p.mail.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve own address: %w", err)
	}

	inbox, err := p.mail.FetchInbox(ctx, p.opts.MaxEmails, true)
	if err != nil {
		return nil, fmt.Errorf("fetch inbox: %w", err)
	}
	p.logger.Info("fetched inbox", "count", len(inbox))
	if len(inbox) == 0 {
		report.FinishedAt = time.Now()
		p.recordRun(report)
		return report, nil
	}

	sent, err := p.mail.FetchSent(ctx, sentStyleWindow)
	if err != nil {
		p.logger.Warn("sent mail unavailable, style learning degraded", "err", err)
		sent = nil
	}
	if p.retriever != nil && len(sent) > 0 {
		if err := p.retriever.IndexSentMail(ctx, sent); err != nil {
			p.logger.Warn("style index update failed", "err", err)
		}
	}

	items := p.gatherHistories(ctx, me, inbox)

	if err := p.classify(ctx, items); err != nil {
		return nil, err
	}

	p.assignAndLabel(ctx, items)

	p.draftReplies(ctx, items, sent)

	p.reconcile(ctx, items)

	p.updateSenderTab(ctx, items)

	p.markProcessed(ctx, items)

	report.Messages = make([]TriagedMessage, len(items))
	for i, it := range items {
		report.Messages[i] = *it
	}
	report.FinishedAt = time.Now()

	if p.opts.SendSummary {
		subject := fmt.Sprintf("Email Triage Report - %s", report.FinishedAt.Format("2006-01-02"))
		if err := p.mail.SendSummaryReport(ctx, subject, report.BuildSummaryHTML()); err != nil {
			p.logger.Warn("summary report failed", "err", err)
		}
	}

	p.recordRun(report)
	return report, nil
}

// gatherHistories resolves role and conversation history per message. A
// failed history fetch degrades to zero history rather than failing the run.
func (p *Pipeline) gatherHistories(ctx context.Context, me string, inbox []domain.Message) []*TriagedMessage {
	now := time.Now()
	items := make([]*TriagedMessage, 0, len(inbox))

	for _, msg := range inbox {
		counterpart := msg.SenderAddress()
		item := &TriagedMessage{
			Message: msg,
			Role:    ResolveRecipientRole(msg.To, msg.Cc, me),
		}

		conv, err := p.mail.FetchMatching(ctx, counterpart, conversationWindow)
		if err != nil {
			p.logger.Warn("history fetch failed, assuming no history", "counterpart", counterpart, "err", err)
			conv = nil
		}
		item.History = AggregateConversation(counterpart, conv, now)
		items = append(items, item)
	}
	return items
}

func (p *Pipeline) classify(ctx context.Context, items []*TriagedMessage) error {
	batch := make([]llm.ClassifyInput, len(items))
	for i, it := range items {
		batch[i] = llm.ClassifyInput{Message: it.Message, History: it.History}
	}

	results, err := p.classifier.Classify(ctx, batch)
	if err != nil {
		return fmt.Errorf("classify batch: %w", err)
	}

	for i, it := range items {
		it.Classification = results[i]
		p.cacheSummary(it)
	}
	return nil
}

// cacheSummary reuses a previously generated summary when the classifier
// returned none, and stores fresh ones.
func (p *Pipeline) cacheSummary(it *TriagedMessage) {
	if it.Classification.Summary == "" {
		if cached, err := p.summaries.Find(it.Message.ID); err == nil && cached != nil {
			it.Classification.Summary = cached.Summary
		}
		return
	}
	if err := p.summaries.Save(it.Message.ID, it.Classification.Summary); err != nil {
		p.logger.Warn("summary cache write failed", "message", it.Message.ID, "err", err)
	}
}

// assignAndLabel computes priority and status per message and applies the
// label state. Per-message failures are recorded and skipped past.
func (p *Pipeline) assignAndLabel(ctx context.Context, items []*TriagedMessage) {
	scores, err := p.sheet.SenderGradeScores(ctx)
	if err != nil {
		p.logger.Warn("sender grades unavailable, history only", "err", err)
		scores = nil
	}

	for _, it := range items {
		replied, err := p.mail.CheckReplied(ctx, it.Message.ThreadID)
		if err != nil {
			p.logger.Warn("reply check failed, assuming not replied", "thread", it.Message.ThreadID, "err", err)
		}

		it.Priority, it.Rationale = AssignPriority(it.Classification, it.History, it.Role)
		if score, ok := scores[it.Message.SenderAddress()]; ok {
			it.Priority, it.Rationale = AdjustForSenderScore(it.Priority, it.Rationale, score)
		}
		it.Status = domain.ComputeStatus(replied, it.Classification.RequiresResponse)

		if err := p.labels.Apply(ctx, it.Message.ID, it.Status, it.Priority); err != nil {
			it.Err = err
		}
	}
}

// draftReplies generates and stores drafts for every needs-reply message.
func (p *Pipeline) draftReplies(ctx context.Context, items []*TriagedMessage, sent []domain.Message) {
	pending := make([]*TriagedMessage, 0, len(items))
	for _, it := range items {
		if it.Status == domain.StatusNeedsReply {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return
	}

	defaultStyle := p.styles.DefaultStyle(ctx, sent)

	sentByID := make(map[string]domain.Message, len(sent))
	for _, m := range sent {
		sentByID[m.ID] = m
	}

	batch := make([]llm.DraftInput, len(pending))
	for i, it := range pending {
		counterpart := it.Message.SenderAddress()
		style, specific := p.styles.StyleFor(ctx, counterpart, it.History, sent, defaultStyle)
		batch[i] = llm.DraftInput{
			Message:       it.Message,
			Style:         style,
			StyleSpecific: specific,
			Context:       p.draftContext(ctx, it, sentByID),
		}
	}

	drafts, err := p.classifier.DraftReplies(ctx, batch)
	if err != nil {
		p.logger.Warn("draft generation failed, continuing without drafts", "err", err)
		return
	}

	for i, it := range pending {
		draft := drafts[i]
		if draft.Body == "" {
			continue
		}
		if draft.Subject == "" {
			draft.Subject = replySubject(it.Message.Subject)
		}
		it.Draft = draft

		draftID, err := p.mail.CreateDraft(ctx, it.Message.ThreadID, it.Message.Sender,
			draft.Subject, bodyToHTML(draft.Body))
		if err != nil {
			p.logger.Error("draft creation failed", "thread", it.Message.ThreadID, "err", err)
			it.Err = err
			continue
		}
		it.DraftID = draftID
	}
}

// draftContext picks past sent bodies relevant to the message: vector-index
// neighbors when available, recent sent mail to the counterpart otherwise.
func (p *Pipeline) draftContext(ctx context.Context, it *TriagedMessage, sentByID map[string]domain.Message) []string {
	var samples []string

	if p.retriever != nil {
		query := it.Message.Subject + "\n" + it.Message.Body
		ids, err := p.retriever.SimilarSent(ctx, query, draftContextLimit)
		if err != nil {
			p.logger.Debug("style index query failed", "err", err)
		}
		for _, id := range ids {
			if m, ok := sentByID[id]; ok {
				samples = append(samples, m.Body)
			}
		}
	}

	for _, body := range it.History.SentBodies {
		if len(samples) >= draftContextLimit {
			break
		}
		samples = append(samples, body)
	}
	return samples
}

func (p *Pipeline) reconcile(ctx context.Context, items []*TriagedMessage) {
	for _, it := range items {
		rec := &domain.HistoryRecord{
			ThreadID:     it.Message.ThreadID,
			Status:       it.Status,
			Priority:     it.Priority,
			Labels:       domain.StatusLabel(it.Status) + ", " + domain.PriorityLabel(it.Priority),
			Subject:      it.Message.Subject,
			Sender:       it.Message.Sender,
			Preview:      it.Message.Body,
			Summary:      it.Classification.Summary,
			DraftSubject: it.Draft.Subject,
			DraftBody:    it.Draft.Body,
			Replied:      it.Status == domain.StatusReplied,
			DraftID:      it.DraftID,
		}

		outcome, err := p.reconciler.Reconcile(ctx, rec)
		if err != nil {
			p.logger.Error("history reconcile failed", "thread", it.Message.ThreadID, "err", err)
			if it.Err == nil {
				it.Err = err
			}
			continue
		}
		it.Outcome = outcome
	}
}

// updateSenderTab refreshes cumulative sender profiles from a bounded scan of
// recent mail plus this run's priorities.
func (p *Pipeline) updateSenderTab(ctx context.Context, items []*TriagedMessage) {
	priorities := map[string][]int{}
	for _, it := range items {
		addr := it.Message.SenderAddress()
		priorities[addr] = append(priorities[addr], it.Priority)
	}

	profiles, err := p.mail.CollectSenderStats(ctx, p.opts.SenderScanDepth, priorities)
	if err != nil {
		p.logger.Warn("sender stats collection failed, tab not updated", "err", err)
		return
	}

	for _, profile := range profiles {
		FinalizeScore(profile)
		if err := p.sheet.UpsertSenderProfile(ctx, profile); err != nil {
			p.logger.Warn("sender profile upsert failed", "address", profile.Address, "err", err)
		}
	}
	p.logger.Info("sender tab updated", "profiles", len(profiles))
}

func (p *Pipeline) markProcessed(ctx context.Context, items []*TriagedMessage) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		// A message that failed label application stays unprocessed so the
		// next run picks it up again.
		if it.Err == nil {
			ids = append(ids, it.Message.ID)
		}
	}
	if err := p.labels.MarkProcessed(ctx, ids); err != nil {
		p.logger.Warn("marking processed failed", "err", err)
	}
}

// SendMarkedDrafts sends every draft whose sheet row has the send checkbox
// set, then flips those rows to replied. Returns the number sent.
func (p *Pipeline) SendMarkedDrafts(ctx context.Context) (int, error) {
	marked, err := p.sheet.DraftsMarkedForSend(ctx)
	if err != nil {
		return 0, fmt.Errorf("read marked drafts: %w", err)
	}

	sent := 0
	for _, rec := range marked {
		if err := p.mail.SendDraft(ctx, rec.DraftID); err != nil {
			p.logger.Error("draft send failed", "draft", rec.DraftID, "thread", rec.ThreadID, "err", err)
			continue
		}
		if err := p.sheet.MarkRowReplied(ctx, rec.Row); err != nil {
			p.logger.Warn("row not marked replied", "row", rec.Row, "err", err)
		}
		sent++
	}
	return sent, nil
}

func (p *Pipeline) recordRun(report *RunReport) {
	needsReply := 0
	for _, m := range report.Messages {
		if m.Status == domain.StatusNeedsReply {
			needsReply++
		}
	}
	run := &domain.RunRecord{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Fetched:    len(report.Messages),
		NeedsReply: needsReply,
		Drafted:    report.Drafted(),
		Failed:     report.Failed(),
	}
	if err := p.runs.Record(run); err != nil {
		p.logger.Warn("run record not written", "err", err)
	}
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// bodyToHTML wraps a plain-text draft body as simple HTML paragraphs.
func bodyToHTML(body string) string {
	paragraphs := strings.Split(body, "\n\n")
	var b strings.Builder
	for _, para := range paragraphs {
		escaped := html.EscapeString(strings.TrimSpace(para))
		if escaped == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(escaped, "\n", "<br/>"))
		b.WriteString("</p>")
	}
	return b.String()
}
