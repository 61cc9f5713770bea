package domain

// ConversationHistory is the aggregated relationship with one counterpart
// address, recomputed from a bounded message window on every run. It carries
// no cross-run memory; the sender-management tab is the only persisted view.
type ConversationHistory struct {
	Counterpart    string `json:"counterpart"`
	SentTo         int    `json:"sent_to"`
	ReceivedFrom   int    `json:"received_from"`
	TotalExchanges int    `json:"total_exchanges"`
	WeightedScore  int    `json:"weighted_score"`
	IsFirstContact bool   `json:"is_first_contact"`
	Recent7Days    int    `json:"recent_7days"`

	// SentBodies holds substantive bodies the user wrote to this counterpart,
	// newest first. Used as style context when drafting replies.
	SentBodies []string `json:"-"`
}

// WeightedExchangeScore weights sent mail double: the habit of writing to
// someone signals more relationship importance than receiving from them.
func WeightedExchangeScore(sent, received int) int {
	return 2*sent + received
}

// FirstContact reports whether the counterpart has written exactly once and
// the user has never written back. Zero messages is not a first contact.
func FirstContact(sent, received int) bool {
	return sent == 0 && received == 1
}
