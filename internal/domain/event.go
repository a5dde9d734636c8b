package domain

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"
)

// Event names carried in the "event" field of every frame.
const (
	EventRequestAuth  = "request_auth"
	EventAuthenticate = "authenticate"
	EventAuthSuccess  = "auth_success"
	EventAuthFailed   = "auth_failed"

	EventRegisterOffer = "register_offer"
	EventCheckOffer    = "check_offer"
	EventSendAnswer    = "send_answer"
	EventCheckAnswer   = "check_answer"
	EventNewOffer      = "new_offer"
	EventNewAnswer     = "new_answer"

	EventSendICECandidate = "send_ice_candidate"
	EventNewICECandidate  = "new_ice_candidate"

	EventRequestSafetyCheck = "request_safety_check"
	EventAckSafetyCheck     = "ack_safety_check"
	EventReportSafe         = "report_senior_is_safe"
	EventReportEmergency    = "report_emergency"
	EventReportCheckFailed  = "report_check_failed"
	EventSafetyCheckResult  = "safety_check_result"
	EventEmergency          = "emergency_situation"

	EventReportSensorStatus    = "report_sensor_status"
	EventRequestStatusSnapshot = "request_status_snapshot"
	EventStatusSnapshot        = "status_snapshot"
	EventSeniorStatusChange    = "notify_senior_status_change"
	EventSensorStatusChange    = "notify_sensor_status_change"

	EventPing  = "ping"
	EventPong  = "pong"
	EventError = "error"
)

// Message is the wire frame: {"event": name, "data": payload}.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func EncodeMessage(event string, data any) ([]byte, error) {
	m := Message{Event: event}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		m.Data = b
	}
	return json.Marshal(m)
}

type AuthSuccess struct {
	ActorKind  ActorKind          `json:"actor_kind"`
	HubID      *HubID             `json:"hub_id,omitempty"`
	StaffID    *StaffID           `json:"staff_id,omitempty"`
	SeniorID   *SeniorID          `json:"senior_id,omitempty"`
	ICEServers []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

type AuthFailure struct {
	Reason string `json:"reason"`
}

type ICECandidateMessage struct {
	SeniorID  SeniorID        `json:"senior_id"`
	Candidate json.RawMessage `json:"candidate"`
}

type SafetyCheckRequest struct {
	CorrelationID string   `json:"correlation_id"`
	SeniorID      SeniorID `json:"senior_id"`
}

type SafetyCheckResult struct {
	SeniorID      SeniorID `json:"senior_id"`
	CorrelationID string   `json:"correlation_id"`
	Outcome       string   `json:"outcome"`
	Detail        string   `json:"detail,omitempty"`
}

type EmergencyNotice struct {
	SeniorID   SeniorID  `json:"senior_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

type StatusSnapshot struct {
	SeniorID SeniorID       `json:"senior_id"`
	Status   *SeniorStatus  `json:"status"`
	Sensors  []SensorStatus `json:"sensors"`
}

type ErrorNotice struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
