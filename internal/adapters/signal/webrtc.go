package signal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/carelink/internal/app"
	"github.com/dkeye/carelink/internal/domain"
)

func handleRegisterOffer(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p sdpPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(domain.RoleOffer); err != nil {
		return err
	}
	return ctl.Orch.RegisterOffer(ctx, sid, p.SeniorID, p.SDP)
}

func handleCheckOffer(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p seniorPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	_, err := ctl.Orch.CheckOffer(ctx, sid, p.SeniorID)
	return err
}

func handleSendAnswer(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p sdpPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(domain.RoleAnswer); err != nil {
		return err
	}
	_, err := ctl.Orch.SendAnswer(ctx, sid, p.SeniorID, p.SDP)
	return err
}

func handleCheckAnswer(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p seniorPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	_, err := ctl.Orch.CheckAnswer(ctx, sid, p.SeniorID)
	return err
}

func handleCandidate(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, data json.RawMessage) error {
	var p candidatePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := (seniorPayload{SeniorID: p.SeniorID}).validate(); err != nil {
		return err
	}
	if err := app.ValidateCandidate(p.Candidate); err != nil {
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}
	return ctl.Orch.RelayCandidate(ctx, sid, p.SeniorID, p.Candidate)
}
