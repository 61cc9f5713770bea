package domain

// Label vocabulary. Three mutually-exclusive status labels, five mutually-
// exclusive priority labels, a processed marker that suppresses refetching,
// and a label for self-addressed summary reports. Names must only stay
// consistent across runs; the provider maps them to opaque ids.
const (
	LabelNeedsReply = "Needs-Reply"
	LabelNoReply    = "No-Reply-Needed"
	LabelReplied    = "Replied"

	LabelP1 = "P1-Lowest"
	LabelP2 = "P2-Low"
	LabelP3 = "P3-Normal"
	LabelP4 = "P4-Urgent"
	LabelP5 = "P5-Critical"

	LabelProcessed = "Processed"
	LabelSummary   = "Mail-Summary"
)

var statusLabels = map[Status]string{
	StatusNeedsReply: LabelNeedsReply,
	StatusNoReply:    LabelNoReply,
	StatusReplied:    LabelReplied,
}

var priorityLabels = [...]string{LabelP1, LabelP2, LabelP3, LabelP4, LabelP5}

// StatusLabel maps a status to its provider label name.
func StatusLabel(s Status) string {
	return statusLabels[s]
}

// PriorityLabel maps a priority to its provider label name. Out-of-range
// priorities fall back to the middle tier.
func PriorityLabel(p int) string {
	if p < 1 || p > 5 {
		return LabelP3
	}
	return priorityLabels[p-1]
}

// StatusLabels returns the three status label names.
func StatusLabels() []string {
	return []string{LabelNeedsReply, LabelNoReply, LabelReplied}
}

// PriorityLabels returns the five priority label names in ascending order.
func PriorityLabels() []string {
	return append([]string(nil), priorityLabels[:]...)
}

// AllLabels returns every label this system manages, in creation order.
func AllLabels() []string {
	all := append(StatusLabels(), PriorityLabels()...)
	return append(all, LabelProcessed, LabelSummary)
}
