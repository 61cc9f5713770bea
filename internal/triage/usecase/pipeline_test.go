package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/llm"
)

// memMailStore is a full in-memory MailStore for pipeline tests.
type memMailStore struct {
	me        string
	inbox     []domain.Message
	sent      []domain.Message
	byAddress map[string][]domain.Message
	replied   map[string]bool

	mods      []labelMod
	processed []string
	drafts    map[string]string // draft id → thread id
	sentIDs   []string
	reports   []string
}

func newMemMailStore() *memMailStore {
	return &memMailStore{
		me:        "me@corp.com",
		byAddress: map[string][]domain.Message{},
		replied:   map[string]bool{},
		drafts:    map[string]string{},
	}
}

func (m *memMailStore) Profile(context.Context) (string, error) { return m.me, nil }

func (m *memMailStore) FetchInbox(_ context.Context, max int, _ bool) ([]domain.Message, error) {
	if len(m.inbox) > max {
		return m.inbox[:max], nil
	}
	return m.inbox, nil
}

func (m *memMailStore) FetchSent(_ context.Context, max int) ([]domain.Message, error) {
	if len(m.sent) > max {
		return m.sent[:max], nil
	}
	return m.sent, nil
}

func (m *memMailStore) FetchMatching(_ context.Context, counterpart string, _ int) ([]domain.Message, error) {
	return m.byAddress[counterpart], nil
}

func (m *memMailStore) ModifyLabels(_ context.Context, id string, add, remove []string) error {
	m.mods = append(m.mods, labelMod{id: id, add: add, remove: remove})
	return nil
}

func (m *memMailStore) MarkProcessed(_ context.Context, ids []string) error {
	m.processed = append(m.processed, ids...)
	return nil
}

func (m *memMailStore) CheckReplied(_ context.Context, threadID string) (bool, error) {
	return m.replied[threadID], nil
}

func (m *memMailStore) CreateDraft(_ context.Context, threadID, _, _, _ string) (string, error) {
	id := "draft-" + threadID
	m.drafts[id] = threadID
	return id, nil
}

func (m *memMailStore) SendDraft(_ context.Context, draftID string) error {
	m.sentIDs = append(m.sentIDs, draftID)
	return nil
}

func (m *memMailStore) SendSummaryReport(_ context.Context, subject, _ string) error {
	m.reports = append(m.reports, subject)
	return nil
}

func (m *memMailStore) CollectSenderStats(_ context.Context, _ int, priorities map[string][]int) (map[string]*domain.SenderProfile, error) {
	out := map[string]*domain.SenderProfile{}
	for addr := range priorities {
		out[addr] = &domain.SenderProfile{
			Address: addr,
			Stats:   domain.SenderStats{TotalReceived: 1},
		}
	}
	return out, nil
}

// memSheet extends the reconciler fake with the rest of TrackingSheet.
type memSheet struct {
	fakeTrackingSheet
	profiles map[string]*domain.SenderProfile
	repliedRows []int
}

func (s *memSheet) UpsertSenderProfile(_ context.Context, p *domain.SenderProfile) error {
	if s.profiles == nil {
		s.profiles = map[string]*domain.SenderProfile{}
	}
	s.profiles[p.Address] = p
	return nil
}

func (s *memSheet) SenderGradeScores(context.Context) (map[string]int, error) {
	scores := map[string]int{}
	for addr, p := range s.profiles {
		if v, ok := p.ManualGrade.Score(); ok {
			scores[addr] = v
		}
	}
	return scores, nil
}

func (s *memSheet) DraftsMarkedForSend(context.Context) ([]*domain.HistoryRecord, error) {
	var out []*domain.HistoryRecord
	for _, r := range s.rows {
		if r.DraftID != "" && r.Status == domain.StatusNeedsReply {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memSheet) MarkRowReplied(_ context.Context, row int) error {
	s.repliedRows = append(s.repliedRows, row)
	return nil
}

// cannedClassifier returns scripted results in input order.
type cannedClassifier struct {
	classifications []domain.ClassificationResult
	drafts          []domain.DraftReply
}

func (c *cannedClassifier) Classify(_ context.Context, batch []llm.ClassifyInput) ([]domain.ClassificationResult, error) {
	return c.classifications[:len(batch)], nil
}

func (c *cannedClassifier) AnalyzeStyle(context.Context, []domain.Message, string) (domain.WritingStyle, error) {
	return domain.DefaultWritingStyle(), nil
}

func (c *cannedClassifier) DraftReplies(_ context.Context, batch []llm.DraftInput) ([]domain.DraftReply, error) {
	return c.drafts[:len(batch)], nil
}

// memStyleCache / memSummaryCache / memRunLog are trivial in-memory repos.
type memStyleCache struct{ styles map[string]*domain.SenderStyle }

func (c *memStyleCache) Find(address string) (*domain.SenderStyle, error) {
	return c.styles[address], nil
}

func (c *memStyleCache) Save(address, styleJSON string) error {
	if c.styles == nil {
		c.styles = map[string]*domain.SenderStyle{}
	}
	c.styles[address] = &domain.SenderStyle{Address: address, StyleJSON: styleJSON, LearnedAt: time.Now()}
	return nil
}

func (c *memStyleCache) Stale(style *domain.SenderStyle, maxAge time.Duration) bool {
	return style == nil || time.Since(style.LearnedAt) > maxAge
}

type memSummaryCache struct{ summaries map[string]string }

func (c *memSummaryCache) Find(id string) (*domain.MessageSummary, error) {
	if s, ok := c.summaries[id]; ok {
		return &domain.MessageSummary{MessageID: id, Summary: s}, nil
	}
	return nil, nil
}

func (c *memSummaryCache) Save(id, summary string) error {
	if c.summaries == nil {
		c.summaries = map[string]string{}
	}
	c.summaries[id] = summary
	return nil
}

type memRunLog struct{ runs []*domain.RunRecord }

func (l *memRunLog) Record(run *domain.RunRecord) error {
	l.runs = append(l.runs, run)
	return nil
}

func (l *memRunLog) Recent(int) ([]*domain.RunRecord, error) { return l.runs, nil }

func TestPipelineRunEndToEnd(t *testing.T) {
	mail := newMemMailStore()
	long := strings.Repeat("x", 60)
	now := time.Now()

	// one genuine first contact, one newsletter
	mail.inbox = []domain.Message{
		{
			ID: "m1", ThreadID: "t1", Sender: "Ann <ann@corp.com>",
			To: []string{"me@corp.com"}, Subject: "Can you review?", Body: long,
			Timestamp: now, Direction: domain.DirectionReceived,
		},
		{
			ID: "m2", ThreadID: "t2", Sender: "News <news@list.com>",
			To: []string{"all-team@corp.com"}, Subject: "Weekly digest", Body: long,
			Timestamp: now, Direction: domain.DirectionReceived,
		},
	}
	mail.byAddress["ann@corp.com"] = []domain.Message{mail.inbox[0]}
	mail.byAddress["news@list.com"] = []domain.Message{
		mail.inbox[1],
		{Direction: domain.DirectionReceived, Body: long, Timestamp: now.AddDate(0, 0, -20)},
	}

	sheet := &memSheet{}
	classifier := &cannedClassifier{
		classifications: []domain.ClassificationResult{
			{RequiresResponse: true, Confidence: 0.9, Priority: 4, Summary: "review ask", Reason: "question"},
			{RequiresResponse: false, Confidence: 0.95, Priority: 1, Summary: "newsletter", Reason: "automated"},
		},
		drafts: []domain.DraftReply{
			{Subject: "Re: Can you review?", Body: "Sure, sending comments today.", Tone: "casual"},
		},
	}

	styleCache := &memStyleCache{}
	summaryCache := &memSummaryCache{}
	runLog := &memRunLog{}
	logger := testLogger()

	pipeline := NewPipeline(mail, sheet, classifier,
		NewStyleLearner(classifier, styleCache, logger),
		NewLabelApplier(mail, logger),
		NewHistoryReconciler(sheet, logger),
		summaryCache, runLog, nil, logger,
		Options{MaxEmails: 10, SenderScanDepth: 100, SendSummary: true})

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Messages, 2)

	// first contact gets priority 5 regardless of the classifier's 4
	first := report.Messages[0]
	assert.Equal(t, 5, first.Priority)
	assert.Equal(t, domain.StatusNeedsReply, first.Status)
	assert.NotEmpty(t, first.DraftID)

	// newsletter: no reply needed, still prioritized for sorting
	second := report.Messages[1]
	assert.Equal(t, domain.StatusNoReply, second.Status)
	assert.Empty(t, second.DraftID)

	// both messages labeled and marked processed
	assert.GreaterOrEqual(t, len(mail.mods), 2)
	assert.ElementsMatch(t, []string{"m1", "m2"}, mail.processed)

	// one history row per thread
	assert.Len(t, sheet.rows, 2)
	assert.Equal(t, domain.OutcomeAdded, first.Outcome)

	// sender tab refreshed, summaries cached, run recorded, report mailed
	assert.Contains(t, sheet.profiles, "ann@corp.com")
	assert.Equal(t, "review ask", summaryCache.summaries["m1"])
	require.Len(t, runLog.runs, 1)
	assert.Equal(t, 2, runLog.runs[0].Fetched)
	assert.Equal(t, 1, runLog.runs[0].NeedsReply)
	assert.Len(t, mail.reports, 1)
}

func TestPipelineRunIsIdempotentOnSecondPass(t *testing.T) {
	mail := newMemMailStore()
	long := strings.Repeat("x", 60)
	mail.inbox = []domain.Message{{
		ID: "m1", ThreadID: "t1", Sender: "Ann <ann@corp.com>",
		To: []string{"me@corp.com"}, Subject: "Hello", Body: long,
		Timestamp: time.Now(), Direction: domain.DirectionReceived,
	}}
	mail.byAddress["ann@corp.com"] = []domain.Message{mail.inbox[0]}

	sheet := &memSheet{}
	classifier := &cannedClassifier{
		classifications: []domain.ClassificationResult{
			{RequiresResponse: true, Confidence: 0.9, Priority: 3, Summary: "s", Reason: "r"},
		},
		drafts: []domain.DraftReply{{Subject: "Re: Hello", Body: "Hi!"}},
	}
	logger := testLogger()

	pipeline := NewPipeline(mail, sheet, classifier,
		NewStyleLearner(classifier, &memStyleCache{}, logger),
		NewLabelApplier(mail, logger),
		NewHistoryReconciler(sheet, logger),
		&memSummaryCache{}, &memRunLog{}, nil, logger,
		Options{MaxEmails: 10, SenderScanDepth: 100})

	ctx := context.Background()
	_, err := pipeline.Run(ctx)
	require.NoError(t, err)
	_, err = pipeline.Run(ctx)
	require.NoError(t, err)

	// the thread is tracked exactly once across runs
	assert.Len(t, sheet.rows, 1)
}

func TestPipelineSendMarkedDrafts(t *testing.T) {
	mail := newMemMailStore()
	sheet := &memSheet{}
	sheet.rows = []*domain.HistoryRecord{
		{ThreadID: "t1", Status: domain.StatusNeedsReply, DraftID: "d1", Row: 2},
		{ThreadID: "t2", Status: domain.StatusNoReply, Row: 3},
	}
	logger := testLogger()

	pipeline := NewPipeline(mail, sheet, &cannedClassifier{},
		NewStyleLearner(&cannedClassifier{}, &memStyleCache{}, logger),
		NewLabelApplier(mail, logger),
		NewHistoryReconciler(sheet, logger),
		&memSummaryCache{}, &memRunLog{}, nil, logger, Options{})

	sent, err := pipeline.SendMarkedDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"d1"}, mail.sentIDs)
	assert.Equal(t, []int{2}, sheet.repliedRows)
}
