package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/carelink/internal/app/orch"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

// Codes carried in error events. Raw errors never reach the client.
const (
	codeBadPayload       = "bad_payload"
	codeUnknownEvent     = "unknown_event"
	codeNotAuthenticated = "not_authenticated"
	codeForbidden        = "forbidden"
	codeRateLimited      = "rate_limited"
	codeInternal         = "internal"
)

var (
	errBadPayload  = errors.New("bad payload")
	errRateLimited = errors.New("too many authentication attempts")
)

type handlerFunc func(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, c *WsSignalConn, data json.RawMessage) error

// handlers is the dispatch table of inbound events.
var handlers map[string]handlerFunc

func init() {
	handlers = map[string]handlerFunc{
		domain.EventPing:         handlePing,
		domain.EventAuthenticate: handleAuthenticate,

		domain.EventRegisterOffer:    handleRegisterOffer,
		domain.EventCheckOffer:       handleCheckOffer,
		domain.EventSendAnswer:       handleSendAnswer,
		domain.EventCheckAnswer:      handleCheckAnswer,
		domain.EventSendICECandidate: handleCandidate,

		domain.EventRequestSafetyCheck: handleRequestSafetyCheck,
		domain.EventAckSafetyCheck:     handleAckSafetyCheck,
		domain.EventReportSafe:         reportHandler(domain.ReplySafe),
		domain.EventReportEmergency:    reportHandler(domain.ReplyEmergency),
		domain.EventReportCheckFailed:  reportHandler(domain.ReplyCheckFailed),

		domain.EventReportSensorStatus:    handleReportSensors,
		domain.EventRequestStatusSnapshot: handleRequestSnapshot,
	}
}

type authenticatePayload struct {
	APIKey string `json:"api_key"`
	Token  string `json:"token"`
}

type seniorPayload struct {
	SeniorID domain.SeniorID `json:"senior_id"`
}

func (p seniorPayload) validate() error {
	if p.SeniorID <= 0 {
		return fmt.Errorf("%w: senior_id required", errBadPayload)
	}
	return nil
}

type sdpPayload struct {
	SeniorID domain.SeniorID         `json:"senior_id"`
	SDP      domain.SignalingPayload `json:"sdp"`
}

func (p sdpPayload) validate(role domain.SignalRole) error {
	if err := (seniorPayload{SeniorID: p.SeniorID}).validate(); err != nil {
		return err
	}
	if err := domain.ValidatePayload(role, p.SDP); err != nil {
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}
	return nil
}

type candidatePayload struct {
	SeniorID  domain.SeniorID `json:"senior_id"`
	Candidate json.RawMessage `json:"candidate"`
}

type correlationPayload struct {
	CorrelationID string `json:"correlation_id"`
	Detail        string `json:"detail"`
}

type sensorsPayload struct {
	Sensors []domain.SensorReading `json:"sensors"`
}

func (p sensorsPayload) validate() error {
	for _, s := range p.Sensors {
		if s.SensorID == "" {
			return fmt.Errorf("%w: sensor_id required", errBadPayload)
		}
	}
	return nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}
	return nil
}

// fail answers a failed handler with an error event.
func (ctl *SignalWSController) fail(ctx context.Context, sid domain.SessionID, event string, err error) {
	logger := log.With().Str("module", "signal").Str("sid", string(sid)).Str("event", event).Logger()
	switch {
	case errors.Is(err, errBadPayload):
		logger.Warn().Err(err).Msg("rejected payload")
		ctl.sendError(ctx, sid, codeBadPayload, err.Error())
	case errors.Is(err, orch.ErrNotAuthenticated):
		ctl.sendError(ctx, sid, codeNotAuthenticated, "authenticate first")
	case errors.Is(err, orch.ErrForbidden):
		logger.Warn().Msg("forbidden")
		ctl.sendError(ctx, sid, codeForbidden, "not allowed")
	case errors.Is(err, errRateLimited):
		ctl.sendError(ctx, sid, codeRateLimited, err.Error())
	default:
		logger.Error().Err(err).Msg("handler failed")
		ctl.sendError(ctx, sid, codeInternal, "internal error")
	}
}
