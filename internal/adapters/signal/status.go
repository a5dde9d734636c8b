package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/carelink/internal/domain"
)

func handleReportSensors(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p sensorsPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	_, err := ctl.Orch.ReportSensors(ctx, sid, p.Sensors)
	return err
}

func handleRequestSnapshot(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p seniorPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	return ctl.Orch.SendSnapshot(ctx, sid, p.SeniorID)
}
