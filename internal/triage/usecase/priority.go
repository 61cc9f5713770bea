package usecase

import (
	"fmt"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// Sent-mail count past which a counterpart is important by construction:
// the user demonstrably keeps writing to them.
const vipSentThreshold = 10

// AssignPriority combines the classifier's output, the conversation history
// and the recipient role into the final 1-5 priority. Rule order matters;
// the first matching rule wins. First-contact and VIP-by-volume messages are
// never downgraded for being merely CC'd; urgency from novelty or
// relationship strength dominates distribution mechanics.
func AssignPriority(res domain.ClassificationResult, hist domain.ConversationHistory, role RoleResolution) (int, string) {
	priority, rationale, protected := basePriority(hist, role)

	if !protected && role.Modifier != 0 {
		priority += role.Modifier
		if priority < 1 {
			priority = 1
		}
		rationale = fmt.Sprintf("%s; %s recipient (%+d)", rationale, role.Role, role.Modifier)
	}
	return priority, rationale
}

// AdjustForSenderScore folds the tracker's cumulative sender score into an
// assigned priority. Manual grades dominate: a blocked sender (score 0) pins
// priority to 1, a VIP-grade score raises the floor to 4, a low-grade score
// caps it at 2. Mid-range scores leave the history-based priority alone.
func AdjustForSenderScore(priority int, rationale string, score int) (int, string) {
	switch {
	case score == 0:
		return 1, rationale + "; blocked sender"
	case score >= 80 && priority < 4:
		return 4, fmt.Sprintf("%s; high sender score (%d)", rationale, score)
	case score <= 20 && priority > 2:
		return 2, fmt.Sprintf("%s; low sender score (%d)", rationale, score)
	default:
		return priority, rationale
	}
}

func basePriority(hist domain.ConversationHistory, role RoleResolution) (priority int, rationale string, protected bool) {
	switch {
	case hist.IsFirstContact:
		return 5, "first contact, needs triage attention", true
	case hist.SentTo > vipSentThreshold:
		return 5, fmt.Sprintf("frequent correspondent (%d sent)", hist.SentTo), true
	case hist.TotalExchanges >= 10:
		return 4, fmt.Sprintf("established relationship (%d exchanges)", hist.TotalExchanges), false
	case hist.TotalExchanges >= 3:
		return 3, fmt.Sprintf("occasional correspondent (%d exchanges)", hist.TotalExchanges), false
	case role.Role == RoleCc || role.Role == RoleGroup:
		return 2, "broadcast/FYI recipient", false
	default:
		return 1, "no established relationship", false
	}
}
