package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseManualGrade(t *testing.T) {
	assert.Equal(t, GradeVIP, ParseManualGrade("VIP"))
	assert.Equal(t, GradeBlocked, ParseManualGrade("Blocked"))
	assert.Equal(t, GradeUnset, ParseManualGrade(""))
	assert.Equal(t, GradeUnset, ParseManualGrade("vip"))   // grades are exact
	assert.Equal(t, GradeUnset, ParseManualGrade("Super")) // unknown text
}

func TestFinalScoreGradeOverridesAuto(t *testing.T) {
	p := &SenderProfile{AutoScore: 37, ManualGrade: GradeImportant}
	assert.Equal(t, 80, p.FinalScore())

	p.ManualGrade = GradeUnset
	assert.Equal(t, 37, p.FinalScore())

	// Blocked pins to zero no matter how active the sender is
	p.ManualGrade = GradeBlocked
	p.AutoScore = 100
	assert.Equal(t, 0, p.FinalScore())
}

func TestClassificationClamp(t *testing.T) {
	r := ClassificationResult{Priority: 11, Confidence: 3.2}
	r.Clamp()
	assert.Equal(t, 5, r.Priority)
	assert.Equal(t, 1.0, r.Confidence)

	r = ClassificationResult{Priority: -2, Confidence: -0.5}
	r.Clamp()
	assert.Equal(t, 1, r.Priority)
	assert.Equal(t, 0.0, r.Confidence)
}

func TestWeightedScoreAndFirstContact(t *testing.T) {
	assert.Equal(t, 7, WeightedExchangeScore(2, 3))
	assert.True(t, FirstContact(0, 1))
	assert.False(t, FirstContact(1, 1))
	assert.False(t, FirstContact(0, 2))
}
