package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/emersion/go-message/mail"
	"github.com/jaytaylor/html2text"
	"github.com/samber/lo"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

const (
	user                 = "me"
	maxConcurrentFetches = 10
	processedScanWindow  = 500
)

// Store wraps the Gmail API behind the mail operations the triage pipeline
// needs: bounded fetches, label mutation, drafts and sends.
type Store struct {
	srv     *gmail.Service
	labels  *labelRegistry
	logger  *log.Logger
	profile string
}

// NewStore creates a Store over an authenticated HTTP client and makes sure
// all managed labels exist.
func NewStore(ctx context.Context, client *http.Client, logger *log.Logger) (*Store, error) {
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	l := logger.WithPrefix("gmail")
	s := &Store{srv: srv, labels: newLabelRegistry(srv, l), logger: l}
	if _, err := s.labels.ensureAll(); err != nil {
		return nil, err
	}
	return s, nil
}

// Profile returns the user's own address, cached after the first call.
func (s *Store) Profile(ctx context.Context) (string, error) {
	if s.profile != "" {
		return s.profile, nil
	}
	p, err := s.srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	s.profile = strings.ToLower(p.EmailAddress)
	return s.profile, nil
}

// FetchInbox returns up to max recent inbox messages, newest first. With
// excludeProcessed set, messages already carrying the processed label are
// skipped; the list window is widened to compensate.
func (s *Store) FetchInbox(ctx context.Context, max int, excludeProcessed bool) ([]domain.Message, error) {
	processedIDs := map[string]struct{}{}
	fetchCount := int64(max)

	if excludeProcessed {
		processedLabelID, err := s.labels.id(domain.LabelProcessed)
		if err != nil {
			return nil, err
		}
		resp, err := s.srv.Users.Messages.List(user).
			LabelIds(processedLabelID).MaxResults(processedScanWindow).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list processed messages: %w", err)
		}
		for _, m := range resp.Messages {
			processedIDs[m.Id] = struct{}{}
		}
		fetchCount = int64(max * 3)
	}

	resp, err := s.srv.Users.Messages.List(user).
		LabelIds("INBOX").MaxResults(fetchCount).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if _, done := processedIDs[m.Id]; done {
			continue
		}
		ids = append(ids, m.Id)
		if len(ids) == max {
			break
		}
	}

	s.logger.Debug("fetching inbox", "listed", len(resp.Messages), "kept", len(ids))
	return s.fetchFull(ctx, ids)
}

// FetchSent returns up to max recent sent messages, newest first.
func (s *Store) FetchSent(ctx context.Context, max int) ([]domain.Message, error) {
	resp, err := s.srv.Users.Messages.List(user).
		LabelIds("SENT").MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}
	ids := lo.Map(resp.Messages, func(m *gmail.Message, _ int) string { return m.Id })
	return s.fetchFull(ctx, ids)
}

// FetchMatching returns recent messages to or from the counterpart.
func (s *Store) FetchMatching(ctx context.Context, counterpart string, max int) ([]domain.Message, error) {
	query := fmt.Sprintf("from:%s OR to:%s", counterpart, counterpart)
	resp, err := s.srv.Users.Messages.List(user).
		Q(query).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list conversation with %s: %w", counterpart, err)
	}
	ids := lo.Map(resp.Messages, func(m *gmail.Message, _ int) string { return m.Id })
	return s.fetchFull(ctx, ids)
}

// fetchFull retrieves full messages in parallel and returns them newest
// first. Messages that fail to fetch are skipped.
func (s *Store) fetchFull(ctx context.Context, ids []string) ([]domain.Message, error) {
	type result struct {
		msg domain.Message
		err error
	}
	results := make(chan result, len(ids))
	sem := make(chan struct{}, maxConcurrentFetches)

	for _, id := range ids {
		go func(id string) {
			sem <- struct{}{}
			defer func() { <-sem }()

			full, err := s.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{msg: s.convert(full)}
		}(id)
	}

	msgs := make([]domain.Message, 0, len(ids))
	for range ids {
		r := <-results
		if r.err != nil {
			s.logger.Warn("skipping unfetchable message", "err", r.err)
			continue
		}
		msgs = append(msgs, r.msg)
	}

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp.After(msgs[j].Timestamp) })
	return msgs, nil
}

// ModifyLabels applies one combined add/remove mutation to a message.
func (s *Store) ModifyLabels(ctx context.Context, messageID string, add, remove []string) error {
	addIDs, err := s.resolveIDs(add)
	if err != nil {
		return err
	}
	removeIDs, err := s.resolveIDs(remove)
	if err != nil {
		return err
	}
	if len(addIDs) == 0 && len(removeIDs) == 0 {
		return nil
	}

	_, err = s.srv.Users.Messages.Modify(user, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addIDs,
		RemoveLabelIds: removeIDs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("modify labels on %s: %w", messageID, err)
	}
	return nil
}

// MarkProcessed adds the processed label to each message. A failure on one
// message is logged and does not stop the rest.
func (s *Store) MarkProcessed(ctx context.Context, messageIDs []string) error {
	processedID, err := s.labels.id(domain.LabelProcessed)
	if err != nil {
		return err
	}
	for _, id := range messageIDs {
		_, err := s.srv.Users.Messages.Modify(user, id, &gmail.ModifyMessageRequest{
			AddLabelIds: []string{processedID},
		}).Context(ctx).Do()
		if err != nil {
			s.logger.Warn("could not mark message processed", "id", id, "err", err)
		}
	}
	return nil
}

// CheckReplied reports whether the user has sent a message in the thread
// after the opening one. Errors degrade to "not replied".
func (s *Store) CheckReplied(ctx context.Context, threadID string) (bool, error) {
	me, err := s.Profile(ctx)
	if err != nil {
		return false, err
	}

	thread, err := s.srv.Users.Threads.Get(user, threadID).
		Format("metadata").MetadataHeaders("From").Context(ctx).Do()
	if err != nil {
		s.logger.Warn("could not inspect thread", "thread", threadID, "err", err)
		return false, nil
	}

	for i, msg := range thread.Messages {
		if i == 0 {
			continue // the opening message
		}
		from := headerValue(msg.Payload, "From")
		if strings.Contains(strings.ToLower(from), me) {
			return true, nil
		}
	}
	return false, nil
}

// CreateDraft creates an HTML draft reply on the thread and returns the
// draft id.
func (s *Store) CreateDraft(ctx context.Context, threadID, to, subject, htmlBody string) (string, error) {
	raw, err := composeHTML(to, subject, htmlBody)
	if err != nil {
		return "", err
	}

	draft, err := s.srv.Users.Drafts.Create(user, &gmail.Draft{
		Message: &gmail.Message{Raw: raw, ThreadId: threadID},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create draft on thread %s: %w", threadID, err)
	}
	return draft.Id, nil
}

// SendDraft sends an existing draft, preserving any edits made to it in the
// Gmail UI.
func (s *Store) SendDraft(ctx context.Context, draftID string) error {
	_, err := s.srv.Users.Drafts.Send(user, &gmail.Draft{Id: draftID}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send draft %s: %w", draftID, err)
	}
	return nil
}

// SendSummaryReport mails an HTML report to the user's own address and tags
// it with the summary label.
func (s *Store) SendSummaryReport(ctx context.Context, subject, htmlBody string) error {
	me, err := s.Profile(ctx)
	if err != nil {
		return err
	}
	raw, err := composeHTML(me, subject, htmlBody)
	if err != nil {
		return err
	}

	sent, err := s.srv.Users.Messages.Send(user, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send summary report: %w", err)
	}

	summaryID, err := s.labels.id(domain.LabelSummary)
	if err != nil {
		return err
	}
	_, err = s.srv.Users.Messages.Modify(user, sent.Id, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{summaryID},
	}).Context(ctx).Do()
	if err != nil {
		s.logger.Warn("could not label summary report", "err", err)
	}
	return nil
}

// CollectSenderStats scans a bounded inbox+sent window and accumulates
// per-counterpart counters. priorities carries this run's assigned
// priorities keyed by sender address; priority 4-5 bumps the high-priority
// counter.
func (s *Store) CollectSenderStats(ctx context.Context, maxEmails int, priorities map[string][]int) (map[string]*domain.SenderProfile, error) {
	resp, err := s.srv.Users.Messages.List(user).
		Q("in:inbox OR in:sent").MaxResults(int64(maxEmails)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list recent mail: %w", err)
	}

	stats := map[string]*domain.SenderProfile{}
	get := func(addr string) *domain.SenderProfile {
		if p, ok := stats[addr]; ok {
			return p
		}
		p := &domain.SenderProfile{Address: addr}
		stats[addr] = p
		return p
	}

	cutoff := time.Now().AddDate(0, 0, -7)

	for _, m := range resp.Messages {
		msg, err := s.srv.Users.Messages.Get(user, m.Id).
			Format("metadata").MetadataHeaders("From", "To").Context(ctx).Do()
		if err != nil {
			s.logger.Warn("skipping message in sender scan", "id", m.Id, "err", err)
			continue
		}

		ts := time.UnixMilli(msg.InternalDate)
		isSent := lo.Contains(msg.LabelIds, "SENT")

		var addr string
		if isSent {
			addr = domain.ExtractAddress(headerValue(msg.Payload, "To"))
			if addr == "" {
				continue
			}
			p := get(addr)
			p.Stats.TotalSent++
			touchContact(p, ts, cutoff)
		} else {
			from := headerValue(msg.Payload, "From")
			addr = domain.ExtractAddress(from)
			if addr == "" {
				continue
			}
			p := get(addr)
			if p.Name == "" {
				p.Name = domain.ExtractDisplayName(from)
			}
			p.Stats.TotalReceived++
			touchContact(p, ts, cutoff)
		}
	}

	for addr, assigned := range priorities {
		p, ok := stats[addr]
		if !ok {
			continue
		}
		for _, prio := range assigned {
			if prio >= 4 {
				p.Stats.HighPriorityCount++
			}
		}
	}

	// Senders we only ever wrote to carry no triage signal.
	for addr, p := range stats {
		if p.Stats.TotalReceived == 0 {
			delete(stats, addr)
		}
	}
	return stats, nil
}

func touchContact(p *domain.SenderProfile, ts time.Time, cutoff time.Time) {
	if ts.After(p.Stats.LastContact) {
		p.Stats.LastContact = ts
	}
	if ts.After(cutoff) {
		p.Stats.Recent7Days++
	}
}

func (s *Store) resolveIDs(names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := s.labels.id(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// convert maps a Gmail API message onto the domain message.
func (s *Store) convert(msg *gmail.Message) domain.Message {
	m := domain.Message{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Sender:    headerValue(msg.Payload, "From"),
		To:        domain.AddressesIn(headerValue(msg.Payload, "To")),
		Cc:        domain.AddressesIn(headerValue(msg.Payload, "Cc")),
		Subject:   headerValue(msg.Payload, "Subject"),
		Preview:   msg.Snippet,
		Timestamp: time.UnixMilli(msg.InternalDate),
		Labels:    s.labels.names(msg.LabelIds),
		Direction: domain.DirectionReceived,
	}
	if lo.Contains(msg.LabelIds, "SENT") {
		m.Direction = domain.DirectionSent
	}
	if msg.Payload != nil {
		m.Body = extractBody(msg.Payload)
	}
	return m
}

func headerValue(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody walks the MIME tree preferring text/plain, falling back to
// text/html converted to plain text.
func extractBody(payload *gmail.MessagePart) string {
	if plain := findPart(payload, "text/plain"); plain != "" {
		return plain
	}
	if html := findPart(payload, "text/html"); html != "" {
		text, err := html2text.FromString(html, html2text.Options{OmitLinks: true, TextOnly: true})
		if err != nil {
			return html
		}
		return text
	}
	return ""
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(data)
	}
	for _, p := range part.Parts {
		if body := findPart(p, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// composeHTML builds a single-part HTML message and returns it base64url
// encoded for the Gmail API.
func composeHTML(to, subject, htmlBody string) (string, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(subject)
	h.Set("To", to)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return "", fmt.Errorf("compose message: %w", err)
	}
	if _, err := io.WriteString(w, htmlBody); err != nil {
		w.Close()
		return "", fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish message: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
