package orch

import (
	"context"
	"time"

	"github.com/dkeye/carelink/internal/app"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	OutcomeSafe        = "safe"
	OutcomeEmergency   = "emergency"
	OutcomeCheckFailed = "check_failed"
	OutcomeNoResponse  = "no_response"
)

// RequestSafetyCheck starts a check on the hub of senior on behalf of a
// staff connection. It returns once the request is issued; the outcome is
// reported later with safety_check_result.
func (o *Orchestrator) RequestSafetyCheck(ctx context.Context, sid domain.SessionID, senior domain.SeniorID) error {
	if _, err := o.actorFor(ctx, sid, senior, domain.ActorStaff); err != nil {
		return err
	}
	return o.startCheck(ctx, sid, senior)
}

// startCheck runs the check detached from the caller's connection: a
// disconnect of the initiator does not cancel it.
func (o *Orchestrator) startCheck(ctx context.Context, initiator domain.SessionID, senior domain.SeniorID) error {
	hub, ok, err := o.Resolver.HubConnection(ctx, senior)
	if err != nil {
		return err
	}
	detached := context.WithoutCancel(ctx)
	if !ok {
		log.Warn().Str("module", "orch.check").Int64("senior_id", int64(senior)).Msg("hub offline, escalating")
		go o.finishCheck(detached, initiator, senior, app.CheckOutcome{State: app.CheckTimedOut, Undelivered: true})
		return nil
	}
	go func() {
		out, err := o.Checks.Issue(detached, initiator, hub.SID, senior, 0)
		if err != nil {
			log.Error().Err(err).Str("module", "orch.check").Int64("senior_id", int64(senior)).Msg("issue check")
		}
		o.finishCheck(detached, initiator, senior, out)
	}()
	return nil
}

func (o *Orchestrator) finishCheck(ctx context.Context, initiator domain.SessionID, senior domain.SeniorID, out app.CheckOutcome) {
	result := domain.SafetyCheckResult{SeniorID: senior, CorrelationID: out.CorrelationID}
	switch {
	case out.State == app.CheckReplied && out.Reply.Kind == domain.ReplySafe:
		result.Outcome = OutcomeSafe
		result.Detail = out.Reply.Detail
	case out.State == app.CheckReplied && out.Reply.Kind == domain.ReplyEmergency:
		result.Outcome = OutcomeEmergency
		result.Detail = out.Reply.Detail
		o.Escalate(ctx, senior, domain.EmergencyReport, orDefault(out.Reply.Detail, "hub reported an emergency"))
	case out.State == app.CheckReplied:
		result.Outcome = OutcomeCheckFailed
		result.Detail = out.Reply.Detail
		o.Escalate(ctx, senior, domain.EmergencyCheckFail, orDefault(out.Reply.Detail, "hub could not complete the safety check"))
	default:
		result.Outcome = OutcomeNoResponse
		o.Escalate(ctx, senior, domain.EmergencyNoResponse, "no response to safety check")
	}

	if initiator != "" {
		o.emit(ctx, initiator, domain.EventSafetyCheckResult, result)
		return
	}
	staff, ok, err := o.Resolver.StaffConnection(ctx, senior)
	if err != nil {
		log.Error().Err(err).Str("module", "orch.check").Int64("senior_id", int64(senior)).Msg("resolve staff for result")
		return
	}
	if ok {
		o.emit(ctx, staff.SID, domain.EventSafetyCheckResult, result)
	}
}

// AckSafetyCheck records the hub's receipt of a check. The check stays
// pending until a report arrives.
func (o *Orchestrator) AckSafetyCheck(ctx context.Context, sid domain.SessionID, correlationID string) error {
	if _, err := o.actor(ctx, sid); err != nil {
		return err
	}
	log.Info().Str("module", "orch.check").Str("sid", string(sid)).Str("correlation_id", correlationID).Msg("check acknowledged")
	return nil
}

// ReportCheck handles report_senior_is_safe, report_emergency and
// report_check_failed. A report matching a pending check resolves it, here
// or in the process that issued it. An uncorrelated emergency or failure
// report escalates on its own; anything else is late and dropped.
func (o *Orchestrator) ReportCheck(ctx context.Context, sid domain.SessionID, correlationID string, reply app.CheckReply) error {
	info, err := o.actor(ctx, sid)
	if err != nil {
		return err
	}
	if !info.IsHub() {
		return ErrForbidden
	}
	pc, ok := o.Checks.Resolve(sid, correlationID, reply)
	if ok || pc != nil {
		return nil
	}
	// the check may have been issued by another process
	forwarded, err := o.Checks.Forward(ctx, sid, correlationID, reply)
	if err != nil {
		return err
	}
	if forwarded || correlationID != "" {
		return nil
	}

	if reply.Kind == domain.ReplySafe {
		return nil
	}
	senior, ok, err := o.seniorOf(ctx, info)
	if err != nil {
		return err
	}
	if !ok {
		log.Warn().Str("module", "orch.check").Str("sid", string(sid)).Msg("report from hub without a senior")
		return nil
	}
	if reply.Kind == domain.ReplyEmergency {
		o.Escalate(ctx, senior, domain.EmergencyReport, orDefault(reply.Detail, "hub reported an emergency"))
	} else {
		o.Escalate(ctx, senior, domain.EmergencyCheckFail, orDefault(reply.Detail, "hub could not complete the safety check"))
	}
	return nil
}

// Escalate marks the senior as in danger, alerts the responsible staff and
// records the event. Each step is attempted even if an earlier one fails.
func (o *Orchestrator) Escalate(ctx context.Context, senior domain.SeniorID, eventType, reason string) {
	logger := log.With().Str("module", "orch.escalate").Int64("senior_id", int64(senior)).Str("event_type", eventType).Logger()
	logger.Warn().Str("reason", reason).Msg("escalating")
	o.Metrics.Escalated(eventType)
	now := time.Now().UTC()

	if _, _, err := o.Status.UpdateSeniorStatus(ctx, senior, domain.RiskDanger, reason); err != nil {
		logger.Error().Err(err).Msg("update status")
	}

	staff, ok, err := o.Resolver.StaffConnection(ctx, senior)
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("resolve staff")
	case ok:
		o.emit(ctx, staff.SID, domain.EventEmergency, domain.EmergencyNotice{SeniorID: senior, Reason: reason, OccurredAt: now})
	default:
		logger.Warn().Msg("no staff online for emergency")
	}

	if o.Emergencies == nil {
		return
	}
	err = o.Emergencies.RecordEmergency(ctx, domain.Emergency{
		SeniorID:    senior,
		EventType:   eventType,
		Description: reason,
		OccurredAt:  now,
	})
	if err != nil {
		logger.Error().Err(err).Msg("record emergency")
	}
}

func (o *Orchestrator) seniorOf(ctx context.Context, info domain.ConnectionInfo) (domain.SeniorID, bool, error) {
	if info.SeniorID != nil {
		return *info.SeniorID, true, nil
	}
	if info.HubID == nil {
		return 0, false, nil
	}
	return o.Lookup.SeniorForHub(ctx, *info.HubID)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
