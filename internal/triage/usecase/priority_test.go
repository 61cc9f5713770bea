package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

var (
	direct = RoleResolution{Role: RoleDirect, Modifier: 0}
	ccRole = RoleResolution{Role: RoleCc, Modifier: -1}
	group  = RoleResolution{Role: RoleGroup, Modifier: -1}
)

func TestAssignPriorityFirstContactAlwaysFive(t *testing.T) {
	hist := domain.ConversationHistory{IsFirstContact: true, ReceivedFrom: 1, TotalExchanges: 1}

	for _, role := range []RoleResolution{direct, ccRole, group} {
		p, _ := AssignPriority(domain.ClassificationResult{}, hist, role)
		assert.Equal(t, 5, p, "role %s must not downgrade first contact", role.Role)
	}
}

func TestAssignPriorityVIPByVolumeProtected(t *testing.T) {
	hist := domain.ConversationHistory{SentTo: 11, TotalExchanges: 30}

	p, _ := AssignPriority(domain.ClassificationResult{}, hist, ccRole)
	assert.Equal(t, 5, p)
}

func TestAssignPriorityEstablishedRelationship(t *testing.T) {
	hist := domain.ConversationHistory{SentTo: 5, ReceivedFrom: 7, TotalExchanges: 12}

	p, _ := AssignPriority(domain.ClassificationResult{}, hist, direct)
	assert.Equal(t, 4, p)

	// cc on an established relationship drops one tier
	p, _ = AssignPriority(domain.ClassificationResult{}, hist, ccRole)
	assert.Equal(t, 3, p)
}

func TestAssignPriorityOccasionalCorrespondent(t *testing.T) {
	hist := domain.ConversationHistory{SentTo: 2, ReceivedFrom: 2, TotalExchanges: 4}

	p, _ := AssignPriority(domain.ClassificationResult{}, hist, direct)
	assert.Equal(t, 3, p)
}

func TestAssignPriorityBroadcastFloor(t *testing.T) {
	// No relationship, group send: base 2, modifier -1.
	hist := domain.ConversationHistory{SentTo: 0, ReceivedFrom: 2, TotalExchanges: 2}

	p, _ := AssignPriority(domain.ClassificationResult{}, hist, group)
	assert.Equal(t, 1, p)
}

func TestAssignPriorityNeverBelowOne(t *testing.T) {
	hist := domain.ConversationHistory{}

	p, _ := AssignPriority(domain.ClassificationResult{}, hist, ccRole)
	assert.Equal(t, 1, p)
}

func TestAssignPriorityRationaleMentionsModifier(t *testing.T) {
	hist := domain.ConversationHistory{SentTo: 5, ReceivedFrom: 7, TotalExchanges: 12}

	_, rationale := AssignPriority(domain.ClassificationResult{}, hist, ccRole)
	assert.Contains(t, rationale, "cc")
}

func TestAdjustForSenderScore(t *testing.T) {
	tests := []struct {
		name     string
		priority int
		score    int
		want     int
	}{
		{"blocked pins to one", 5, 0, 1},
		{"vip raises floor", 2, 100, 4},
		{"important raises floor", 3, 80, 4},
		{"vip leaves higher priority alone", 5, 100, 5},
		{"low grade caps", 4, 20, 2},
		{"normal grade is neutral", 3, 50, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := AdjustForSenderScore(tt.priority, "base", tt.score)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjustForSenderScoreRationale(t *testing.T) {
	_, rationale := AdjustForSenderScore(2, "base", 100)
	assert.Contains(t, rationale, "high sender score")
}
