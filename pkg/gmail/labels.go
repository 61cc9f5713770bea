package gmail

import (
	"fmt"

	"github.com/charmbracelet/log"
	"google.golang.org/api/gmail/v1"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// labelColor is a Gmail palette color pair. Gmail rejects colors outside its
// fixed palette, so these must stay on the documented values.
type labelColor struct {
	background string
	text       string
}

var labelColors = map[string]labelColor{
	domain.LabelNeedsReply: {"#fb4c2f", "#ffffff"},
	domain.LabelNoReply:    {"#e3d7ff", "#000000"},
	domain.LabelReplied:    {"#16a765", "#ffffff"},

	domain.LabelP1: {"#e3d7ff", "#000000"},
	domain.LabelP2: {"#a4c2f4", "#000000"},
	domain.LabelP3: {"#fce8b3", "#000000"},
	domain.LabelP4: {"#ffad47", "#000000"},
	domain.LabelP5: {"#fb4c2f", "#ffffff"},

	domain.LabelProcessed: {"#b6cff5", "#000000"},
	domain.LabelSummary:   {"#42d692", "#ffffff"},
}

// labelRegistry resolves label names to provider ids, creating missing labels
// on first use. The name→id map is cached for the life of the process and
// refreshed once on a miss.
type labelRegistry struct {
	srv    *gmail.Service
	logger *log.Logger
	byName map[string]string
	byID   map[string]string
}

func newLabelRegistry(srv *gmail.Service, logger *log.Logger) *labelRegistry {
	return &labelRegistry{srv: srv, logger: logger}
}

func (r *labelRegistry) refresh() error {
	resp, err := r.srv.Users.Labels.List("me").Do()
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}
	r.byName = make(map[string]string, len(resp.Labels))
	r.byID = make(map[string]string, len(resp.Labels))
	for _, l := range resp.Labels {
		r.byName[l.Name] = l.Id
		r.byID[l.Id] = l.Name
	}
	return nil
}

// ensureAll creates every managed label that does not exist yet and returns
// the full name→id mapping.
func (r *labelRegistry) ensureAll() (map[string]string, error) {
	if r.byName == nil {
		if err := r.refresh(); err != nil {
			return nil, err
		}
	}

	ids := make(map[string]string, len(domain.AllLabels()))
	for _, name := range domain.AllLabels() {
		id, err := r.ensure(name)
		if err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, nil
}

func (r *labelRegistry) ensure(name string) (string, error) {
	if id, ok := r.byName[name]; ok {
		return id, nil
	}

	label := &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}
	if c, ok := labelColors[name]; ok {
		label.Color = &gmail.LabelColor{BackgroundColor: c.background, TextColor: c.text}
	}

	created, err := r.srv.Users.Labels.Create("me", label).Do()
	if err != nil {
		// Another client may have created it between refresh and create.
		if refreshErr := r.refresh(); refreshErr == nil {
			if id, ok := r.byName[name]; ok {
				return id, nil
			}
		}
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	r.logger.Info("created label", "name", name, "id", created.Id)
	r.byName[name] = created.Id
	r.byID[created.Id] = name
	return created.Id, nil
}

// id resolves one label name, creating the label if needed.
func (r *labelRegistry) id(name string) (string, error) {
	if r.byName == nil {
		if err := r.refresh(); err != nil {
			return "", err
		}
	}
	return r.ensure(name)
}

// names maps provider label ids back to names, passing unknown ids through.
func (r *labelRegistry) names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := r.byID[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, id)
		}
	}
	return out
}
