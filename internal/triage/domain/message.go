package domain

import (
	"regexp"
	"strings"
	"time"
)

// Direction indicates whether a message was sent by the user or received.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Message is one inbound or outbound email as seen by the provider.
// Messages are read-only to this system except for label mutation.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Sender    string    `json:"sender"` // raw From header, may be "Name <addr>"
	To        []string  `json:"to"`
	Cc        []string  `json:"cc"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
	Labels    []string  `json:"labels"`
	Direction Direction `json:"direction"`
}

// SenderAddress returns the bare address of the From header.
func (m *Message) SenderAddress() string {
	return ExtractAddress(m.Sender)
}

var (
	angleAddrRe = regexp.MustCompile(`<(.+?)>`)
	bareAddrRe  = regexp.MustCompile(`[\w\.\-+]+@[\w\.\-]+`)
)

// ExtractAddress pulls the bare email address out of a "Name <addr@host>"
// header value. A value without angle brackets is returned as-is, lowercased.
func ExtractAddress(header string) string {
	if m := angleAddrRe.FindStringSubmatch(header); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	return strings.ToLower(strings.TrimSpace(header))
}

// ExtractDisplayName returns the display-name part of a From header, or ""
// when the header is a bare address.
func ExtractDisplayName(header string) string {
	if idx := strings.Index(header, "<"); idx > 0 {
		return strings.Trim(strings.TrimSpace(header[:idx]), `"'`)
	}
	return ""
}

// AddressesIn returns every email address found in a To/Cc header value,
// lowercased.
func AddressesIn(header string) []string {
	found := bareAddrRe.FindAllString(header, -1)
	addrs := make([]string, 0, len(found))
	for _, a := range found {
		addrs = append(addrs, strings.ToLower(a))
	}
	return addrs
}
