package domain

// Status is the reply state of a tracked conversation.
type Status string

const (
	StatusNeedsReply Status = "needs-reply"
	StatusNoReply    Status = "no-reply"
	StatusReplied    Status = "replied"
)

// ReconcileOutcome reports what the reconciler did with a record.
type ReconcileOutcome string

const (
	OutcomeAdded     ReconcileOutcome = "added"
	OutcomeUpdated   ReconcileOutcome = "updated"
	OutcomeUnchanged ReconcileOutcome = "unchanged"
)

// ComputeStatus derives the tracked status for a conversation. A detected
// reply always wins over the classifier: a manually-sent answer must not be
// resurrected as "needs reply" by a stale classification.
func ComputeStatus(replied, requiresResponse bool) Status {
	if replied {
		return StatusReplied
	}
	if requiresResponse {
		return StatusNeedsReply
	}
	return StatusNoReply
}

// HistoryRecord is one row in the cumulative tracking sheet, keyed by thread
// id: a thread may accumulate several messages but is tracked as one logical
// "does this conversation need a reply" unit.
type HistoryRecord struct {
	ThreadID     string `json:"thread_id"`
	Status       Status `json:"status"`
	Priority     int    `json:"priority"`
	Labels       string `json:"labels"`
	Subject      string `json:"subject"`
	Sender       string `json:"sender"`
	Preview      string `json:"preview"`
	Summary      string `json:"summary"` // AI one-line summary
	DraftSubject string `json:"draft_subject"`
	DraftBody    string `json:"draft_body"`
	Replied      bool   `json:"replied"`
	DraftID      string `json:"draft_id"`

	// Row is the 1-based sheet row the record lives in; zero for records not
	// yet persisted.
	Row int `json:"-"`
}
