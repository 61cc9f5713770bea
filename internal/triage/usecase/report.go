package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// TriagedMessage is one message after the full pipeline: classification,
// history, role, priority and (when applicable) draft.
type TriagedMessage struct {
	Message        domain.Message
	History        domain.ConversationHistory
	Role           RoleResolution
	Classification domain.ClassificationResult
	Priority       int
	Rationale      string
	Status         domain.Status
	Draft          domain.DraftReply
	DraftID        string
	Outcome        domain.ReconcileOutcome
	Err            error
}

// RunReport summarizes one batch run.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Messages   []TriagedMessage
}

func (r *RunReport) needsResponse() []TriagedMessage {
	out := filterMessages(r.Messages, func(m TriagedMessage) bool {
		return m.Status == domain.StatusNeedsReply
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func (r *RunReport) noResponse() []TriagedMessage {
	return filterMessages(r.Messages, func(m TriagedMessage) bool {
		return m.Status != domain.StatusNeedsReply
	})
}

// Failed counts messages that hit an error somewhere in the pipeline.
func (r *RunReport) Failed() int {
	return len(filterMessages(r.Messages, func(m TriagedMessage) bool { return m.Err != nil }))
}

// Drafted counts messages that got a draft created.
func (r *RunReport) Drafted() int {
	return len(filterMessages(r.Messages, func(m TriagedMessage) bool { return m.DraftID != "" }))
}

func filterMessages(msgs []TriagedMessage, keep func(TriagedMessage) bool) []TriagedMessage {
	out := make([]TriagedMessage, 0, len(msgs))
	for _, m := range msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236")).Padding(0, 1)
	urgentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priorityStyle = lipgloss.NewStyle().Bold(true)
)

var priorityColors = map[int]lipgloss.Color{
	1: lipgloss.Color("245"),
	2: lipgloss.Color("110"),
	3: lipgloss.Color("220"),
	4: lipgloss.Color("208"),
	5: lipgloss.Color("196"),
}

// RenderConsole renders the run summary for the terminal, needs-reply items
// first, highest priority on top.
func (r *RunReport) RenderConsole() string {
	var b strings.Builder

	needs := r.needsResponse()
	no := r.noResponse()

	b.WriteString(headerStyle.Render(fmt.Sprintf("TRIAGE RESULTS - %d messages in %s",
		len(r.Messages), r.FinishedAt.Sub(r.StartedAt).Round(time.Second))))
	b.WriteString("\n\n")

	b.WriteString(urgentStyle.Render(fmt.Sprintf("NEEDS RESPONSE (%d)", len(needs))))
	b.WriteString("\n")
	for i, m := range needs {
		tag := priorityStyle.Foreground(priorityColors[m.Priority]).Render(fmt.Sprintf("[P%d]", m.Priority))
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, tag, m.Message.Subject)
		fmt.Fprintf(&b, "    %s\n", dimStyle.Render("From: "+m.Message.Sender))
		if m.Rationale != "" {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render(m.Rationale))
		}
		if m.DraftID != "" {
			fmt.Fprintf(&b, "    %s\n", okStyle.Render("draft ready"))
		}
		if m.Err != nil {
			fmt.Fprintf(&b, "    %s\n", urgentStyle.Render("error: "+m.Err.Error()))
		}
	}

	b.WriteString("\n")
	b.WriteString(okStyle.Render(fmt.Sprintf("NO RESPONSE NEEDED (%d)", len(no))))
	b.WriteString("\n")
	for i, m := range no {
		fmt.Fprintf(&b, "%2d. [P%d] %s %s\n", i+1, m.Priority, m.Message.Subject,
			dimStyle.Render("- "+domain.ExtractAddress(m.Message.Sender)))
	}

	return b.String()
}

// BuildSummaryHTML renders the run as an HTML report body suitable for the
// self-addressed summary mail.
func (r *RunReport) BuildSummaryHTML() string {
	var b strings.Builder

	needs := r.needsResponse()
	no := r.noResponse()

	fmt.Fprintf(&b, "<h2>Email Triage Report - %s</h2>", r.FinishedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "<p>%d messages analyzed, %d need a response, %d drafts created.</p>",
		len(r.Messages), len(needs), r.Drafted())

	b.WriteString("<h3>Needs response</h3><ol>")
	for _, m := range needs {
		fmt.Fprintf(&b, "<li><b>[P%d]</b> %s <i>(%s)</i>", m.Priority, m.Message.Subject, m.Message.Sender)
		if m.Classification.Summary != "" {
			fmt.Fprintf(&b, "<br/>%s", m.Classification.Summary)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ol>")

	b.WriteString("<h3>No response needed</h3><ol>")
	for _, m := range no {
		fmt.Fprintf(&b, "<li>[P%d] %s <i>(%s)</i></li>", m.Priority, m.Message.Subject, m.Message.Sender)
	}
	b.WriteString("</ol>")

	return b.String()
}
