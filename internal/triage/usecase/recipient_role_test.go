package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRecipientRole(t *testing.T) {
	self := "me@corp.com"

	cases := []struct {
		name     string
		to       []string
		cc       []string
		want     RecipientRole
		modifier int
	}{
		{"direct recipient", []string{"me@corp.com"}, nil, RoleDirect, 0},
		{"direct beats cc when in both", []string{"me@corp.com"}, []string{"me@corp.com"}, RoleDirect, 0},
		{"cc recipient", []string{"other@corp.com"}, []string{"me@corp.com"}, RoleCc, -1},
		{"group list in to", []string{"team-all@corp.com"}, nil, RoleGroup, -1},
		{"google group", []string{"dev@googlegroups.com"}, nil, RoleGroup, -1},
		{"noreply sender list", []string{"noreply@service.com"}, nil, RoleGroup, -1},
		{"bcc fallback is direct", []string{"someone@else.com"}, nil, RoleDirect, 0},
		{"case insensitive match", []string{"ME@CORP.COM"}, nil, RoleDirect, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveRecipientRole(tc.to, tc.cc, self)
			assert.Equal(t, tc.want, got.Role)
			assert.Equal(t, tc.modifier, got.Modifier)
		})
	}
}

func TestResolveRecipientRoleSelfInToSuppressesGroup(t *testing.T) {
	// The user literally present in To is direct even when the list also
	// carries a broadcast address.
	got := ResolveRecipientRole([]string{"team-all@corp.com", "me@corp.com"}, nil, "me@corp.com")
	assert.Equal(t, RoleDirect, got.Role)
	assert.Equal(t, 0, got.Modifier)
}
