package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

func sentMsg(body string, ts time.Time) domain.Message {
	return domain.Message{Direction: domain.DirectionSent, Body: body, Timestamp: ts}
}

func receivedMsg(body string, ts time.Time) domain.Message {
	return domain.Message{Direction: domain.DirectionReceived, Body: body, Timestamp: ts}
}

func TestAggregateConversationWeighting(t *testing.T) {
	now := time.Now()
	long := strings.Repeat("x", 60)

	hist := AggregateConversation("ann@corp.com", []domain.Message{
		sentMsg(long, now.AddDate(0, 0, -10)),
		sentMsg(long, now.AddDate(0, 0, -12)),
		receivedMsg("short", now.AddDate(0, 0, -11)),
	}, now)

	assert.Equal(t, 2, hist.SentTo)
	assert.Equal(t, 1, hist.ReceivedFrom)
	assert.Equal(t, 3, hist.TotalExchanges)
	// sent mail counts double
	assert.Equal(t, 5, hist.WeightedScore)
	assert.False(t, hist.IsFirstContact)
	assert.Len(t, hist.SentBodies, 2)
}

func TestAggregateConversationSignatureOnlySentIgnored(t *testing.T) {
	now := time.Now()

	hist := AggregateConversation("bob@corp.com", []domain.Message{
		sentMsg("Sent from my iPhone", now), // 19 chars, below the threshold
		receivedMsg("hello", now),
	}, now)

	assert.Equal(t, 0, hist.SentTo)
	assert.Equal(t, 1, hist.ReceivedFrom)
	// one received, zero substantive sent: this is a first contact
	assert.True(t, hist.IsFirstContact)
}

func TestAggregateConversationRecentWindow(t *testing.T) {
	now := time.Now()
	long := strings.Repeat("x", 60)

	hist := AggregateConversation("ann@corp.com", []domain.Message{
		receivedMsg(long, now.AddDate(0, 0, -1)),
		receivedMsg(long, now.AddDate(0, 0, -3)),
		receivedMsg(long, now.AddDate(0, 0, -30)),
		sentMsg(long, now.AddDate(0, 0, -2)),
	}, now)

	assert.Equal(t, 3, hist.Recent7Days)
}

func TestAggregateConversationEmptyWindow(t *testing.T) {
	hist := AggregateConversation("new@corp.com", nil, time.Now())

	assert.Equal(t, 0, hist.TotalExchanges)
	assert.Equal(t, 0, hist.WeightedScore)
	// zero messages is unknown, not first contact
	assert.False(t, hist.IsFirstContact)
}
