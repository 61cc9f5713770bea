package domain

import "time"

// ManualGrade is a human-assigned importance grade for a sender. When set it
// overrides the automatic score entirely and never decays as new mail arrives.
type ManualGrade string

const (
	GradeUnset     ManualGrade = ""
	GradeVIP       ManualGrade = "VIP"
	GradeImportant ManualGrade = "Important"
	GradeNormal    ManualGrade = "Normal"
	GradeLow       ManualGrade = "Low"
	GradeBlocked   ManualGrade = "Blocked"
)

var gradeScores = map[ManualGrade]int{
	GradeVIP:       100,
	GradeImportant: 80,
	GradeNormal:    50,
	GradeLow:       20,
	GradeBlocked:   0,
}

// Score returns the fixed score for a grade and whether the grade is one of
// the recognized values.
func (g ManualGrade) Score() (int, bool) {
	s, ok := gradeScores[g]
	return s, ok
}

// ParseManualGrade normalizes a free-text grade cell. Unrecognized values
// (including blanks) map to GradeUnset.
func ParseManualGrade(s string) ManualGrade {
	for g := range gradeScores {
		if string(g) == s {
			return g
		}
	}
	return GradeUnset
}

// SenderStats are the accumulated counters behind the automatic score.
// A sender the stats collector never saw gets the zero value, which the
// score engine must tolerate (missing history degrades, never aborts).
type SenderStats struct {
	TotalSent         int       `json:"total_sent"`
	TotalReceived     int       `json:"total_received"`
	HighPriorityCount int       `json:"high_priority_count"` // priority 4-5 messages received
	Recent7Days       int       `json:"recent_7days"`
	LastContact       time.Time `json:"last_contact"`
}

// SenderProfile is the cumulative per-sender record persisted in the
// sender-management tab. Created on first sight, updated in place on every
// later run, never auto-deleted.
type SenderProfile struct {
	Address     string      `json:"address"`
	Name        string      `json:"name"`
	AutoScore   int         `json:"auto_score"`
	ManualGrade ManualGrade `json:"manual_grade"`
	Note        string      `json:"note"`
	Stats       SenderStats `json:"stats"`
}

// FinalScore is the manual grade's fixed score when a grade is set, otherwise
// the automatic score. Always within [0,100].
func (p *SenderProfile) FinalScore() int {
	if s, ok := p.ManualGrade.Score(); ok {
		return s
	}
	return p.AutoScore
}
