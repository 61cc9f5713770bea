package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose before fence", "Here you go:\n```json\n{}\n```\nDone.", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFence(tc.in))
		})
	}
}

func TestParseClassificationBatch(t *testing.T) {
	raw := "```json\n" + `[
		{"email_index": 2, "requires_response": false, "confidence": 0.95, "priority": 1, "summary": "newsletter", "reason": "automated"},
		{"email_index": 1, "requires_response": true, "confidence": 1.7, "priority": 9, "summary": "urgent ask", "reason": "direct question"}
	]` + "\n```"

	results, err := ParseClassificationBatch(raw, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// email_index maps back to input order regardless of array order
	assert.True(t, results[0].RequiresResponse)
	assert.Equal(t, "direct question", results[0].Reason)
	assert.False(t, results[1].RequiresResponse)

	// out-of-range values are clamped
	assert.Equal(t, 5, results[0].Priority)
	assert.Equal(t, 1.0, results[0].Confidence)
}

func TestParseClassificationBatchMissingItemGetsDefault(t *testing.T) {
	raw := `[{"email_index": 1, "requires_response": false, "confidence": 0.8, "priority": 2, "summary": "s", "reason": "r"}]`

	results, err := ParseClassificationBatch(raw, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// skipped messages conservatively stay in the needs-reply path
	assert.True(t, results[1].RequiresResponse)
	assert.Equal(t, 3, results[1].Priority)
	assert.True(t, results[2].RequiresResponse)
}

func TestParseClassificationBatchMalformed(t *testing.T) {
	_, err := ParseClassificationBatch("not json at all", 2)
	assert.Error(t, err)
}

func TestParseStyleFillsDefaults(t *testing.T) {
	raw := `{"greeting_style": "Hey,", "common_phrases": ["let me know"]}`

	style, err := ParseStyle(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hey,", style.Greeting)
	assert.Equal(t, []string{"let me know"}, style.CommonPhrases)

	def := domain.DefaultWritingStyle()
	assert.Equal(t, def.Closing, style.Closing)
	assert.Equal(t, def.Formality, style.Formality)
}

func TestParseStyleMalformedReturnsDefault(t *testing.T) {
	style, err := ParseStyle("oops")
	assert.Error(t, err)
	assert.Equal(t, domain.DefaultWritingStyle(), style)
}

func TestParseDraftBatch(t *testing.T) {
	raw := `[
		{"email_index": 1, "subject": "Re: hello", "body": "Hi, thanks!", "tone": "casual"},
		{"subject": "Re: report", "body": "Attached.", "tone": "formal"}
	]`

	drafts, err := ParseDraftBatch(raw, 2)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Re: hello", drafts[0].Subject)
	// item without email_index falls back to array position
	assert.Equal(t, "Attached.", drafts[1].Body)
}

func TestBuildClassificationPromptIncludesHistory(t *testing.T) {
	batch := []ClassifyInput{{
		Message: domain.Message{Subject: "Quick question", Sender: "Ann <ann@corp.com>", Body: "Can you review?"},
		History: domain.ConversationHistory{SentTo: 4, ReceivedFrom: 2, IsFirstContact: false, WeightedScore: 10},
	}}

	prompt := BuildClassificationPrompt(batch)
	assert.Contains(t, prompt, "Quick question")
	assert.Contains(t, prompt, "sent to this sender: 4")
	assert.Contains(t, prompt, "email_index")
}
