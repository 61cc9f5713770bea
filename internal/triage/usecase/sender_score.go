package usecase

import (
	"math"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// AutoScore converts accumulated sender stats into a 0-100 importance score:
// a weighted sum of four independently capped components, clamped (not
// renormalized) at 100 and rounded. Zero-valued stats are valid input; a
// failed history fetch degrades to a minimal score, never an error.
func AutoScore(stats domain.SenderStats) int {
	score := highPriorityComponent(stats) +
		frequencyComponent(stats) +
		sentRatioComponent(stats) +
		recencyComponent(stats)

	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// Share of received mail that was classified priority 4-5, max 40 pts.
func highPriorityComponent(stats domain.SenderStats) float64 {
	if stats.TotalReceived == 0 {
		return 0
	}
	return float64(stats.HighPriorityCount) / float64(stats.TotalReceived) * 40
}

// Interaction frequency tiered on the weighted exchange count, max 30 pts.
// Never zero: any contact at all registers minimal frequency credit.
func frequencyComponent(stats domain.SenderStats) float64 {
	weighted := domain.WeightedExchangeScore(stats.TotalSent, stats.TotalReceived)
	switch {
	case weighted >= 100:
		return 30
	case weighted >= 50:
		return 25
	case weighted >= 20:
		return 20
	case weighted >= 10:
		return 15
	case weighted >= 5:
		return 10
	default:
		return 5
	}
}

// Share of the exchange the user initiated, max 20 pts.
func sentRatioComponent(stats domain.SenderStats) float64 {
	total := stats.TotalSent + stats.TotalReceived
	if total == 0 {
		return 0
	}
	return float64(stats.TotalSent) / float64(total) * 20
}

// Trailing 7-day activity, max 10 pts.
func recencyComponent(stats domain.SenderStats) float64 {
	switch {
	case stats.Recent7Days >= 10:
		return 10
	case stats.Recent7Days >= 5:
		return 8
	case stats.Recent7Days >= 3:
		return 6
	case stats.Recent7Days >= 1:
		return 3
	default:
		return 0
	}
}

// FinalizeScore fills in the profile's automatic score. The final score read
// back from the profile honors a manual grade over the automatic value.
func FinalizeScore(profile *domain.SenderProfile) int {
	profile.AutoScore = AutoScore(profile.Stats)
	return profile.FinalScore()
}
