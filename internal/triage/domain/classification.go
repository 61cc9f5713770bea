package domain

// ClassificationResult is the per-message output of the external classifier,
// validated at the boundary: out-of-range values are clamped rather than
// rejected so a text-parsing glitch never drops a message from triage.
type ClassificationResult struct {
	RequiresResponse bool    `json:"requires_response"`
	Confidence       float64 `json:"confidence"`
	Priority         int     `json:"priority"`
	Reason           string  `json:"reason"`
	Summary          string  `json:"summary"`
}

// Clamp forces priority into [1,5] and confidence into [0,1].
func (r *ClassificationResult) Clamp() {
	if r.Priority < 1 {
		r.Priority = 1
	} else if r.Priority > 5 {
		r.Priority = 5
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	} else if r.Confidence > 1 {
		r.Confidence = 1
	}
}

// DraftReply is a generated reply for one message.
type DraftReply struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tone    string `json:"tone"`
}

// WritingStyle is a learned profile of how the user writes, extracted from
// sent mail. A sender-specific style wins over the default when enough
// history exists.
type WritingStyle struct {
	Greeting         string   `json:"greeting_style"`
	Closing          string   `json:"closing_style"`
	Formality        string   `json:"formality_level"`
	CommonPhrases    []string `json:"common_phrases"`
	Tone             string   `json:"tone_description"`
	ExampleSentences []string `json:"example_sentences"`
}

// DefaultWritingStyle is the fallback when no sent mail is available or
// style analysis was skipped.
func DefaultWritingStyle() WritingStyle {
	return WritingStyle{
		Greeting:  "Hello,",
		Closing:   "Best regards,",
		Formality: "neutral",
		Tone:      "Professional and clear",
	}
}
