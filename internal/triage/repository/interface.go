package repository

import (
	"time"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// StyleCache persists learned writing styles per counterpart.
type StyleCache interface {
	// Find returns nil when no style is cached for the address.
	Find(address string) (*domain.SenderStyle, error)
	Save(address, styleJSON string) error
	// Stale reports whether a cached style is older than maxAge.
	Stale(style *domain.SenderStyle, maxAge time.Duration) bool
}

// SummaryCache persists AI one-line summaries per message id.
type SummaryCache interface {
	Find(messageID string) (*domain.MessageSummary, error)
	Save(messageID, summary string) error
}

// RunLog records one audit row per batch run.
type RunLog interface {
	Record(run *domain.RunRecord) error
	// Recent returns the latest runs, newest first.
	Recent(limit int) ([]*domain.RunRecord, error)
}
