package usecase

import (
	"strings"
	"time"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// Bodies at or below this length are auto-signatures ("sent from my phone"),
// not genuine sent mail, and do not count toward the relationship.
const minSubstantiveBody = 50

const recentActivityWindow = 7 * 24 * time.Hour

// AggregateConversation computes the relationship with one counterpart from a
// bounded window of matching messages. Pure function of its inputs; nothing
// is persisted and every run recomputes from scratch.
func AggregateConversation(counterpart string, msgs []domain.Message, now time.Time) domain.ConversationHistory {
	hist := domain.ConversationHistory{Counterpart: strings.ToLower(counterpart)}

	cutoff := now.Add(-recentActivityWindow)
	for _, m := range msgs {
		switch m.Direction {
		case domain.DirectionSent:
			if len(strings.TrimSpace(m.Body)) > minSubstantiveBody {
				hist.SentTo++
				hist.SentBodies = append(hist.SentBodies, m.Body)
			}
		case domain.DirectionReceived:
			hist.ReceivedFrom++
		}
		if m.Timestamp.After(cutoff) {
			hist.Recent7Days++
		}
	}

	hist.TotalExchanges = hist.SentTo + hist.ReceivedFrom
	hist.WeightedScore = domain.WeightedExchangeScore(hist.SentTo, hist.ReceivedFrom)
	hist.IsFirstContact = domain.FirstContact(hist.SentTo, hist.ReceivedFrom)
	return hist
}
