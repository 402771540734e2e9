package constant

// Blocked reasons returned with a 200 "blocked" result. Clients poll on these
// while waiting for a partner, so they are stable strings.
const (
	BlockedSessionNotActive     = "session not active"
	BlockedWrongStage           = "wrong stage"
	BlockedGatesUnsatisfied     = "gates unsatisfied"
	BlockedPartnerNotReady      = "partner not ready"
	BlockedTerminalStage        = "terminal stage"
	BlockedCommonGroundNotReady = "common ground not ready"
	BlockedPartnerNotJoined     = "partner not joined"
)

const (
	ResultStatusOK      = "ok"
	ResultStatusBlocked = "blocked"
)

// Fallback text used when the AI collaborator is unavailable for a transition.
const TransitionFallbackMessage = "You have moved to the next part of the conversation."
