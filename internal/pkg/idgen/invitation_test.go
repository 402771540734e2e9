package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := InvitationCode()
		require.NoError(t, err)
		assert.Len(t, code, invitationLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(invitationAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	assert.Len(t, seen, 200)
}
