package usecase

import (
	"regexp"
	"strings"
)

// RecipientRole describes how the user received a message.
type RecipientRole string

const (
	RoleDirect RecipientRole = "direct"
	RoleCc     RecipientRole = "cc"
	RoleGroup  RecipientRole = "group"
)

// RoleResolution is the resolved role plus the priority modifier it carries:
// 0 for direct, -1 for cc and group sends.
type RoleResolution struct {
	Role     RecipientRole
	Modifier int
}

// Broadcast/distribution patterns in To addresses. A match means the mail
// went to a group rather than to the user personally.
var groupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`all[-_@]`),
	regexp.MustCompile(`team[-_@]`),
	regexp.MustCompile(`group[-_@]`),
	regexp.MustCompile(`dept[-_@]`),
	regexp.MustCompile(`everyone`),
	regexp.MustCompile(`announce`),
	regexp.MustCompile(`news`),
	regexp.MustCompile(`^info@`),
	regexp.MustCompile(`^admin@`),
	regexp.MustCompile(`noreply`),
	regexp.MustCompile(`no-reply`),
	regexp.MustCompile(`@googlegroups\.com`),
	regexp.MustCompile(`@lists\.`),
	regexp.MustCompile(`-all@`),
	regexp.MustCompile(`-team@`),
}

// ResolveRecipientRole classifies the user's role on a message from its
// To/Cc address lists. Direct when the user's address is in To; cc when it is
// in Cc but not To; group when To looks like a broadcast and the user is not
// literally present. A message where the user appears in neither header
// (BCC, forwarded) falls back to direct so the transport's inability to
// attribute it never silently downgrades it.
func ResolveRecipientRole(to, cc []string, self string) RoleResolution {
	self = strings.ToLower(self)

	if containsAddress(to, self) {
		return RoleResolution{Role: RoleDirect, Modifier: 0}
	}
	if containsAddress(cc, self) {
		return RoleResolution{Role: RoleCc, Modifier: -1}
	}
	for _, addr := range to {
		if isGroupAddress(addr) {
			return RoleResolution{Role: RoleGroup, Modifier: -1}
		}
	}
	return RoleResolution{Role: RoleDirect, Modifier: 0}
}

func containsAddress(addrs []string, self string) bool {
	for _, a := range addrs {
		if strings.ToLower(a) == self {
			return true
		}
	}
	return false
}

func isGroupAddress(addr string) bool {
	addr = strings.ToLower(addr)
	for _, p := range groupPatterns {
		if p.MatchString(addr) {
			return true
		}
	}
	return false
}
