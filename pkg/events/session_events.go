package events

// Event names delivered to a participant about their session. Each is also
// the NATS subject suffix under "events.".
const (
	PartnerJoined                = "partner.joined"
	PartnerAdvanced              = "partner.advanced"
	PartnerNeedsShared           = "partner.needs_shared"
	PartnerCommonGroundConfirmed = "partner.common_ground_confirmed"
	PartnerGateSatisfied         = "partner.gate_satisfied"
	CommonGroundReady            = "common_ground.ready"
	StageCompleted               = "stage.completed"
	TransitionMessage            = "transition.message"
	SessionPaused                = "session.paused"
	SessionResumed               = "session.resumed"
	SessionResolved              = "session.resolved"
)

// Payload keys shared by publishers and the notification consumer.
const (
	KeySessionID = "session_id"
	KeyUserID    = "user_id"
	KeyActorID   = "actor_id"
	KeyData      = "data"
)

// SessionActivated is sent to the creator once the invitee has signed the compact.
const SessionActivated = "session.activated"
