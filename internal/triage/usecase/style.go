package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/repository"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/llm"
)

const (
	// Exchanges required before a counterpart gets their own learned style.
	minExchangesForStyle = 3
	// Cached styles older than this are re-learned.
	styleMaxAge = 30 * 24 * time.Hour

	defaultStyleKey = "__default__"
)

// StyleLearner extracts the user's writing style from sent mail and caches
// the result locally so repeated runs skip re-analysis.
type StyleLearner struct {
	classifier llm.Classifier
	cache      repository.StyleCache
	logger     *log.Logger
}

func NewStyleLearner(classifier llm.Classifier, cache repository.StyleCache, logger *log.Logger) *StyleLearner {
	return &StyleLearner{classifier: classifier, cache: cache, logger: logger.WithPrefix("style")}
}

// DefaultStyle returns the user's general writing style, learned from the
// sent window. Analysis failures degrade to the built-in default.
func (s *StyleLearner) DefaultStyle(ctx context.Context, sent []domain.Message) domain.WritingStyle {
	if style, ok := s.cached(defaultStyleKey); ok {
		return style
	}

	samples := substantiveOnly(sent)
	if len(samples) == 0 {
		return domain.DefaultWritingStyle()
	}

	style, err := s.classifier.AnalyzeStyle(ctx, samples, "")
	if err != nil {
		s.logger.Warn("default style analysis failed, using built-in", "err", err)
		return domain.DefaultWritingStyle()
	}
	s.store(defaultStyleKey, style)
	return style
}

// StyleFor returns the style to draft with for one counterpart: a
// counterpart-specific style when enough history exists, otherwise the
// default. The bool reports whether the style is counterpart-specific.
func (s *StyleLearner) StyleFor(ctx context.Context, counterpart string, hist domain.ConversationHistory, sent []domain.Message, fallback domain.WritingStyle) (domain.WritingStyle, bool) {
	if hist.TotalExchanges < minExchangesForStyle {
		return fallback, false
	}

	if style, ok := s.cached(counterpart); ok {
		return style, true
	}

	samples := sentTo(sent, counterpart)
	if len(samples) == 0 {
		return fallback, false
	}

	style, err := s.classifier.AnalyzeStyle(ctx, samples, counterpart)
	if err != nil {
		s.logger.Warn("style analysis failed, using default", "counterpart", counterpart, "err", err)
		return fallback, false
	}
	s.store(counterpart, style)
	s.logger.Info("learned counterpart style", "counterpart", counterpart, "samples", len(samples))
	return style, true
}

func (s *StyleLearner) cached(key string) (domain.WritingStyle, bool) {
	entry, err := s.cache.Find(key)
	if err != nil {
		s.logger.Warn("style cache read failed", "key", key, "err", err)
		return domain.WritingStyle{}, false
	}
	if s.cache.Stale(entry, styleMaxAge) {
		return domain.WritingStyle{}, false
	}
	var style domain.WritingStyle
	if err := json.Unmarshal([]byte(entry.StyleJSON), &style); err != nil {
		return domain.WritingStyle{}, false
	}
	return style, true
}

func (s *StyleLearner) store(key string, style domain.WritingStyle) {
	raw, err := json.Marshal(style)
	if err != nil {
		return
	}
	if err := s.cache.Save(key, string(raw)); err != nil {
		s.logger.Warn("style cache write failed", "key", key, "err", err)
	}
}

func substantiveOnly(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if len(strings.TrimSpace(m.Body)) > minSubstantiveBody {
			out = append(out, m)
		}
	}
	return out
}

func sentTo(msgs []domain.Message, counterpart string) []domain.Message {
	counterpart = strings.ToLower(counterpart)
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if len(strings.TrimSpace(m.Body)) <= minSubstantiveBody {
			continue
		}
		for _, to := range m.To {
			if to == counterpart {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
