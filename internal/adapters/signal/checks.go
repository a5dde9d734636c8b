package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/carelink/internal/app"
	"github.com/dkeye/carelink/internal/domain"
)

func handleRequestSafetyCheck(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p seniorPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	return ctl.Orch.RequestSafetyCheck(ctx, sid, p.SeniorID)
}

func handleAckSafetyCheck(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p correlationPayload
	if len(data) > 0 {
		if err := decode(data, &p); err != nil {
			return err
		}
	}
	return ctl.Orch.AckSafetyCheck(ctx, sid, p.CorrelationID)
}

// reportHandler serves the three hub replies to a safety check. The
// payload is optional; without a correlation id the oldest pending check
// is answered.
func reportHandler(kind domain.CheckReply) handlerFunc {
	return func(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
		var p correlationPayload
		if len(data) > 0 {
			if err := decode(data, &p); err != nil {
				return err
			}
		}
		return ctl.Orch.ReportCheck(ctx, sid, p.CorrelationID, app.CheckReply{Kind: kind, Detail: p.Detail})
	}
}
