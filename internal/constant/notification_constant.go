package constant

import "reconcile-be/pkg/events"

type NotificationTemplate struct {
	Title   string
	Message string
}

// NotificationTemplates maps event names to inbox copy.
var NotificationTemplates = map[string]NotificationTemplate{
	events.PartnerJoined:                {"Your partner joined", "Your partner accepted the invitation. The session is now active."},
	events.PartnerAdvanced:              {"Your partner moved ahead", "Your partner has finished a stage."},
	events.PartnerNeedsShared:           {"Needs shared", "Your partner shared their needs with you."},
	events.PartnerCommonGroundConfirmed: {"Common ground confirmed", "Your partner confirmed the common ground."},
	events.PartnerGateSatisfied:         {"Your partner made progress", "Your partner completed a step in the current stage."},
	events.CommonGroundReady:            {"Common ground is ready", "The needs you both share are ready to review."},
	events.StageCompleted:               {"Stage completed", "You both completed the stage together."},
	events.TransitionMessage:            {"A new message is waiting", "Your guide has a message for the next stage."},
	events.SessionActivated:             {"Session started", "Your partner signed the compact. You can both begin."},
	events.SessionPaused:                {"Session paused", "The session has been paused."},
	events.SessionResumed:               {"Session resumed", "The session has been resumed."},
	events.SessionResolved:              {"Session resolved", "The session has been marked as resolved."},
}

func TemplateFor(eventName string) NotificationTemplate {
	if t, ok := NotificationTemplates[eventName]; ok {
		return t
	}
	return NotificationTemplate{Title: "Session update", Message: "There is an update in your session."}
}
