package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// RelayClassifier implements Classifier without any API: it writes each
// prompt to a file in the work directory, the user pastes it into a chat
// assistant by hand, and then pastes the JSON answer back into the terminal.
// Fenced code blocks around the pasted answer are tolerated.
type RelayClassifier struct {
	workDir string
	logger  *log.Logger
}

// NewRelayClassifier creates a relay classifier writing prompts under workDir.
func NewRelayClassifier(workDir string, logger *log.Logger) (*RelayClassifier, error) {
	if workDir == "" {
		workDir = "."
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create relay work dir: %w", err)
	}
	return &RelayClassifier{workDir: workDir, logger: logger.WithPrefix("relay")}, nil
}

func (r *RelayClassifier) relay(ctx context.Context, kind, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(r.workDir, fmt.Sprintf("%s_prompt_%s.txt", kind, time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(prompt), 0o644); err != nil {
		return "", fmt.Errorf("write prompt file: %w", err)
	}
	r.logger.Info("prompt written, paste it into your assistant", "file", path)

	var answer string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("Paste the JSON answer for %s", filepath.Base(path))).
				Description("Paste the assistant's full response; code fences are fine.").
				Value(&answer),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("read relayed answer: %w", err)
	}
	return answer, nil
}

// Classify implements Classifier.
func (r *RelayClassifier) Classify(ctx context.Context, batch []ClassifyInput) ([]domain.ClassificationResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	raw, err := r.relay(ctx, "classification", BuildClassificationPrompt(batch))
	if err != nil {
		return nil, err
	}
	return ParseClassificationBatch(raw, len(batch))
}

// AnalyzeStyle implements Classifier.
func (r *RelayClassifier) AnalyzeStyle(ctx context.Context, sent []domain.Message, recipient string) (domain.WritingStyle, error) {
	if len(sent) == 0 {
		return domain.DefaultWritingStyle(), nil
	}
	raw, err := r.relay(ctx, "style", BuildStylePrompt(sent, recipient))
	if err != nil {
		return domain.DefaultWritingStyle(), err
	}
	return ParseStyle(raw)
}

// DraftReplies implements Classifier.
func (r *RelayClassifier) DraftReplies(ctx context.Context, batch []DraftInput) ([]domain.DraftReply, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	raw, err := r.relay(ctx, "draft", BuildDraftPrompt(batch))
	if err != nil {
		return nil, err
	}
	return ParseDraftBatch(raw, len(batch))
}
