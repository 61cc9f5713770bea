package llm

import (
	"context"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// ClassifyInput is one message plus the conversation-history hint the
// classifier should weigh.
type ClassifyInput struct {
	Message domain.Message
	History domain.ConversationHistory
}

// DraftInput is one message needing a reply, with the writing style to match
// and optional past conversation samples for context.
type DraftInput struct {
	Message       domain.Message
	Style         domain.WritingStyle
	StyleSpecific bool     // style was learned for this exact counterpart
	Context       []string // past sent bodies, most relevant first
}

// Classifier is the language-model capability. How the text is produced,
// direct API call or a manual copy/paste relay, is an implementation
// detail; both return the same structured results.
// Implement this interface to add new providers.
type Classifier interface {
	// Classify returns one result per input, in input order. Out-of-range
	// priority/confidence values are clamped before return.
	Classify(ctx context.Context, batch []ClassifyInput) ([]domain.ClassificationResult, error)
	// AnalyzeStyle extracts the user's writing style from sent mail.
	// recipient narrows the analysis to mail sent to one counterpart;
	// empty means the general default style.
	AnalyzeStyle(ctx context.Context, sent []domain.Message, recipient string) (domain.WritingStyle, error)
	// DraftReplies returns one draft per input, in input order.
	DraftReplies(ctx context.Context, batch []DraftInput) ([]domain.DraftReply, error)
}

// ProviderType selects the classifier backend.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderRelay  ProviderType = "relay"
	ProviderAuto   ProviderType = "auto"
)
