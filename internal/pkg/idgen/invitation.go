package idgen

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	invitationAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	invitationLength   = 10
)

// InvitationCode returns a short, unambiguous code a participant can type or
// share in a link.
func InvitationCode() (string, error) {
	return gonanoid.Generate(invitationAlphabet, invitationLength)
}
