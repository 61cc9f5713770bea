package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ann Lee <ann@corp.com>", "ann@corp.com"},
		{"<BOB@corp.com>", "bob@corp.com"},
		{"plain@corp.com", "plain@corp.com"},
		{"  spaced@corp.com  ", "spaced@corp.com"},
		{`"Quoted, Name" <q@corp.com>`, "q@corp.com"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractAddress(tc.in), "input %q", tc.in)
	}
}

func TestExtractDisplayName(t *testing.T) {
	assert.Equal(t, "Ann Lee", ExtractDisplayName("Ann Lee <ann@corp.com>"))
	assert.Equal(t, "", ExtractDisplayName("ann@corp.com"))
}

func TestAddressesIn(t *testing.T) {
	got := AddressesIn("Ann <ann@corp.com>, Bob <BOB@corp.com>, carol@x.io")
	assert.Equal(t, []string{"ann@corp.com", "bob@corp.com", "carol@x.io"}, got)
}

func TestStatusAndPriorityLabelMapping(t *testing.T) {
	assert.Equal(t, LabelNeedsReply, StatusLabel(StatusNeedsReply))
	assert.Equal(t, LabelP5, PriorityLabel(5))
	assert.Equal(t, LabelP1, PriorityLabel(1))
	// out of range falls back to the middle tier
	assert.Equal(t, LabelP3, PriorityLabel(0))
	assert.Equal(t, LabelP3, PriorityLabel(7))

	assert.Len(t, AllLabels(), 10)
}
