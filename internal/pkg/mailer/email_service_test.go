package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvitationLink(t *testing.T) {
	assert.Equal(t, "https://app.example.com/invitations/AB23CD45EF",
		InvitationLink("https://app.example.com", "AB23CD45EF"))
}
