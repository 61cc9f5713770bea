package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

const bodyPreviewLimit = 500

// BuildClassificationPrompt renders the batch classification prompt: every
// message with its conversation-history hint, and the JSON schema the model
// must answer with.
func BuildClassificationPrompt(batch []ClassifyInput) string {
	var b strings.Builder
	b.WriteString(`Analyze these emails and decide for each whether it requires a response.

Guidelines:
- Newsletters, notifications, automated messages: no response needed
- Direct questions, meeting requests, personal messages: response needed
- Weigh the conversation history: frequent correspondents and first contacts matter more

Emails to analyze:
`)

	for i, in := range batch {
		h := in.History
		fmt.Fprintf(&b, `
EMAIL #%d
Subject: %s
From: %s
Body preview: %s

Conversation history:
- sent to this sender: %d
- received from this sender: %d
- exchanges in the last 7 days: %d
- first contact: %t
- weighted score: %d
`, i+1, in.Message.Subject, in.Message.Sender, truncate(preview(in.Message), bodyPreviewLimit),
			h.SentTo, h.ReceivedFrom, h.Recent7Days, h.IsFirstContact, h.WeightedScore)
	}

	b.WriteString(`
Respond with only a JSON array, one object per email:
[
  {
    "email_index": 1,
    "requires_response": true,
    "confidence": 0.9,
    "priority": 4,
    "summary": "one-line summary",
    "reason": "brief explanation"
  }
]
`)
	return b.String()
}

// BuildStylePrompt renders the writing-style analysis prompt over a window of
// sent mail, optionally narrowed to one recipient.
func BuildStylePrompt(sent []domain.Message, recipient string) string {
	var b strings.Builder
	if recipient != "" {
		fmt.Fprintf(&b, "Analyze my writing style from these emails sent to %s.\n", recipient)
	} else {
		b.WriteString("Analyze my general writing style from these sent emails.\n")
	}
	b.WriteString(`
Extract:
1. greeting_style: how I typically start emails
2. closing_style: how I typically end emails
3. formality_level: formal / casual / neutral
4. common_phrases: 5-7 phrases I frequently use
5. tone_description: overall tone
6. example_sentences: 3-4 typical sentence structures

Sent emails:
`)

	for i, m := range sent {
		fmt.Fprintf(&b, "\nEmail %d:\nSubject: %s\nBody:\n%s\n---\n", i+1, m.Subject, truncate(m.Body, bodyPreviewLimit))
	}

	b.WriteString(`
Respond with only this JSON:
{
  "greeting_style": "Hi,",
  "closing_style": "Best regards,",
  "formality_level": "neutral",
  "common_phrases": ["..."],
  "tone_description": "...",
  "example_sentences": ["..."]
}
`)
	return b.String()
}

// BuildDraftPrompt renders the batch draft-generation prompt with per-message
// style instructions and past conversation samples.
func BuildDraftPrompt(batch []DraftInput) string {
	var b strings.Builder
	b.WriteString(`Generate draft replies for these emails. Match the writing style specified
for each email and keep relevant context from past conversations.

`)

	for i, in := range batch {
		styleNote := "default style"
		if in.StyleSpecific {
			styleNote = fmt.Sprintf("style learned for %s", in.Message.Sender)
		}
		fmt.Fprintf(&b, `%d. From: %s
   Subject: %s
   Body: %s
   Style (%s):
   - greeting: %q
   - closing: %q
   - formality: %s
   - tone: %s
`, i+1, in.Message.Sender, in.Message.Subject, truncate(preview(in.Message), bodyPreviewLimit),
			styleNote, in.Style.Greeting, in.Style.Closing, in.Style.Formality, in.Style.Tone)
		if len(in.Style.CommonPhrases) > 0 {
			fmt.Fprintf(&b, "   - common phrases: %s\n", strings.Join(firstN(in.Style.CommonPhrases, 3), ", "))
		}
		for j, c := range firstN(in.Context, 2) {
			fmt.Fprintf(&b, "   Past message %d: %s\n", j+1, truncate(c, 150))
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with only a JSON array, one object per email:
[
  {
    "email_index": 1,
    "subject": "Re: <original subject>",
    "body": "<draft reply body>",
    "tone": "formal"
  }
]
`)
	return b.String()
}

type classificationItem struct {
	EmailIndex       int     `json:"email_index"`
	RequiresResponse bool    `json:"requires_response"`
	Confidence       float64 `json:"confidence"`
	Priority         int     `json:"priority"`
	Summary          string  `json:"summary"`
	Reason           string  `json:"reason"`
}

// ParseClassificationBatch decodes a batch classification response into one
// result per input, matched by email_index (falling back to array order for
// items without one). Out-of-range values are clamped; a missing item gets a
// conservative default instead of dropping the message from triage.
func ParseClassificationBatch(raw string, n int) ([]domain.ClassificationResult, error) {
	var items []classificationItem
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("parse classification response: %w", err)
	}

	results := make([]domain.ClassificationResult, n)
	for i := range results {
		// default for messages the model skipped: assume a reply is needed
		results[i] = domain.ClassificationResult{RequiresResponse: true, Confidence: 0.5, Priority: 3, Reason: "no classification returned"}
	}

	for pos, item := range items {
		idx := item.EmailIndex - 1
		if idx < 0 || idx >= n {
			idx = pos
		}
		if idx >= n {
			continue
		}
		res := domain.ClassificationResult{
			RequiresResponse: item.RequiresResponse,
			Confidence:       item.Confidence,
			Priority:         item.Priority,
			Summary:          item.Summary,
			Reason:           item.Reason,
		}
		if res.Reason == "" {
			res.Reason = item.Summary
		}
		res.Clamp()
		results[idx] = res
	}
	return results, nil
}

// ParseStyle decodes a style-analysis response, filling defaults for any
// missing field.
func ParseStyle(raw string) (domain.WritingStyle, error) {
	style := domain.DefaultWritingStyle()
	var decoded domain.WritingStyle
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &decoded); err != nil {
		return style, fmt.Errorf("parse style response: %w", err)
	}
	if decoded.Greeting != "" {
		style.Greeting = decoded.Greeting
	}
	if decoded.Closing != "" {
		style.Closing = decoded.Closing
	}
	if decoded.Formality != "" {
		style.Formality = decoded.Formality
	}
	if decoded.Tone != "" {
		style.Tone = decoded.Tone
	}
	style.CommonPhrases = decoded.CommonPhrases
	style.ExampleSentences = decoded.ExampleSentences
	return style, nil
}

type draftItem struct {
	EmailIndex int    `json:"email_index"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Tone       string `json:"tone"`
}

// ParseDraftBatch decodes a draft-generation response into one draft per
// input, matched by email_index with array-order fallback. Inputs the model
// skipped get an empty draft.
func ParseDraftBatch(raw string, n int) ([]domain.DraftReply, error) {
	var items []draftItem
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("parse draft response: %w", err)
	}

	drafts := make([]domain.DraftReply, n)
	for pos, item := range items {
		idx := item.EmailIndex - 1
		if idx < 0 || idx >= n {
			idx = pos
		}
		if idx >= n {
			continue
		}
		drafts[idx] = domain.DraftReply{Subject: item.Subject, Body: item.Body, Tone: item.Tone}
	}
	return drafts, nil
}

// StripCodeFence removes a surrounding markdown code fence, if any, so
// responses pasted from a chat interface parse the same as raw API output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "```json"); start >= 0 {
		s = s[start+len("```json"):]
	} else if start := strings.Index(s, "```"); start >= 0 {
		s = s[start+len("```"):]
	} else {
		return s
	}
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func preview(m domain.Message) string {
	if m.Body != "" {
		return m.Body
	}
	return m.Preview
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func firstN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
