package domain

import "time"

// CheckReply is what a hub answered to a safety check.
type CheckReply string

const (
	ReplySafe        CheckReply = "safe"
	ReplyEmergency   CheckReply = "emergency"
	ReplyCheckFailed CheckReply = "check_failed"
)

// Emergency event types as recorded in the emergency log.
const (
	EmergencyNoResponse = "no_response"
	EmergencyReport     = "emergency_report"
	EmergencyCheckFail  = "check_failed"
)

type Emergency struct {
	SeniorID    SeniorID  `json:"senior_id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}
