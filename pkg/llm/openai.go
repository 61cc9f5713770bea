package llm

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClassifier implements Classifier against the OpenAI chat completions
// API.
type OpenAIClassifier struct {
	client openai.Client
	model  string
	logger *log.Logger
}

// NewOpenAIClassifier creates a new OpenAI-backed classifier.
func NewOpenAIClassifier(apiKey, model string, logger *log.Logger) *OpenAIClassifier {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClassifier{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger.WithPrefix("openai"),
	}
}

func (c *OpenAIClassifier) complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: param.Opt[float64]{Value: temperature},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Classify implements Classifier.
func (c *OpenAIClassifier) Classify(ctx context.Context, batch []ClassifyInput) ([]domain.ClassificationResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	c.logger.Debug("classifying batch", "count", len(batch), "model", c.model)

	raw, err := c.complete(ctx,
		"You are an email triage assistant. Respond with only valid JSON.",
		BuildClassificationPrompt(batch), 0.3)
	if err != nil {
		return nil, err
	}
	return ParseClassificationBatch(raw, len(batch))
}

// AnalyzeStyle implements Classifier.
func (c *OpenAIClassifier) AnalyzeStyle(ctx context.Context, sent []domain.Message, recipient string) (domain.WritingStyle, error) {
	if len(sent) == 0 {
		return domain.DefaultWritingStyle(), nil
	}
	c.logger.Debug("analyzing writing style", "samples", len(sent), "recipient", recipient)

	raw, err := c.complete(ctx,
		"You are a writing style analyst. Respond with only valid JSON.",
		BuildStylePrompt(sent, recipient), 0.3)
	if err != nil {
		return domain.DefaultWritingStyle(), err
	}
	return ParseStyle(raw)
}

// DraftReplies implements Classifier.
func (c *OpenAIClassifier) DraftReplies(ctx context.Context, batch []DraftInput) ([]domain.DraftReply, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	c.logger.Debug("drafting replies", "count", len(batch), "model", c.model)

	raw, err := c.complete(ctx,
		"You draft email replies in the user's own voice. Respond with only valid JSON.",
		BuildDraftPrompt(batch), 0.7)
	if err != nil {
		return nil, err
	}
	return ParseDraftBatch(raw, len(batch))
}
