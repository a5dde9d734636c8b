package orch

import (
	"context"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

// ReportSensors stores every reading a hub reports. The senior is the one
// the hub is installed for. It returns how many readings were stored.
func (o *Orchestrator) ReportSensors(ctx context.Context, sid domain.SessionID, readings []domain.SensorReading) (int, error) {
	info, err := o.actor(ctx, sid)
	if err != nil {
		return 0, err
	}
	if !info.IsHub() {
		return 0, ErrForbidden
	}
	senior, ok, err := o.seniorOf(ctx, info)
	if err != nil {
		return 0, err
	}
	if !ok {
		log.Warn().Str("module", "orch.status").Str("sid", string(sid)).Msg("sensor report from hub without a senior")
		return 0, nil
	}
	stored := 0
	for _, r := range readings {
		if _, _, err := o.Status.UpdateSensorStatus(ctx, senior, r.SensorID, r.Value, r.Timestamp); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// SensorReading stores a reading that arrived through the ingestion queue.
func (o *Orchestrator) SensorReading(ctx context.Context, senior domain.SeniorID, r domain.SensorReading) error {
	_, _, err := o.Status.UpdateSensorStatus(ctx, senior, r.SensorID, r.Value, r.Timestamp)
	return err
}

// RiskAssessed records a risk level from the scoring service. DANGER
// starts a safety check on the senior's hub; its result goes to the
// responsible staff.
func (o *Orchestrator) RiskAssessed(ctx context.Context, senior domain.SeniorID, level domain.RiskLevel, reason string) error {
	if _, _, err := o.Status.UpdateSeniorStatus(ctx, senior, level, reason); err != nil {
		return err
	}
	if level != domain.RiskDanger {
		return nil
	}
	log.Info().Str("module", "orch.status").Int64("senior_id", int64(senior)).Str("reason", reason).Msg("danger assessed, checking on senior")
	return o.startCheck(ctx, "", senior)
}

// SendSnapshot answers request_status_snapshot.
func (o *Orchestrator) SendSnapshot(ctx context.Context, sid domain.SessionID, senior domain.SeniorID) error {
	if _, err := o.actorFor(ctx, sid, senior, domain.ActorStaff); err != nil {
		return err
	}
	snap, err := o.Status.Snapshot(ctx, senior)
	if err != nil {
		return err
	}
	o.emit(ctx, sid, domain.EventStatusSnapshot, snap)
	return nil
}

// Ping answers a client keepalive.
func (o *Orchestrator) Ping(ctx context.Context, sid domain.SessionID) {
	o.emit(ctx, sid, domain.EventPong, nil)
}
