package orch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

// RegisterOffer parks a hub's offer until staff check for it.
func (o *Orchestrator) RegisterOffer(ctx context.Context, sid domain.SessionID, senior domain.SeniorID, p domain.SignalingPayload) error {
	if _, err := o.actorFor(ctx, sid, senior, domain.ActorHub); err != nil {
		return err
	}
	if err := o.Mailbox.Register(ctx, senior, domain.RoleOffer, p); err != nil {
		return err
	}
	log.Info().Str("module", "orch.signal").Str("sid", string(sid)).Int64("senior_id", int64(senior)).Msg("offer registered")
	return nil
}

// CheckOffer hands a pending offer to the staff member asking. Nothing is
// sent when the slot is empty; the client polls again.
func (o *Orchestrator) CheckOffer(ctx context.Context, sid domain.SessionID, senior domain.SeniorID) (bool, error) {
	if _, err := o.actorFor(ctx, sid, senior, domain.ActorStaff); err != nil {
		return false, err
	}
	return o.deliverPending(ctx, sid, senior, domain.RoleOffer, domain.EventNewOffer)
}

// CheckAnswer is the hub side of CheckOffer.
func (o *Orchestrator) CheckAnswer(ctx context.Context, sid domain.SessionID, senior domain.SeniorID) (bool, error) {
	if _, err := o.actorFor(ctx, sid, senior, domain.ActorHub); err != nil {
		return false, err
	}
	return o.deliverPending(ctx, sid, senior, domain.RoleAnswer, domain.EventNewAnswer)
}

// SendAnswer stores the answer and, when the hub is online, delivers it
// at once. An offline hub can still pick it up with check_answer.
func (o *Orchestrator) SendAnswer(ctx context.Context, sid domain.SessionID, senior domain.SeniorID, p domain.SignalingPayload) (bool, error) {
	if _, err := o.actorFor(ctx, sid, senior, domain.ActorStaff); err != nil {
		return false, err
	}
	if err := o.Mailbox.Register(ctx, senior, domain.RoleAnswer, p); err != nil {
		return false, err
	}
	hub, ok, err := o.Resolver.HubConnection(ctx, senior)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Warn().Str("module", "orch.signal").Int64("senior_id", int64(senior)).Msg("hub offline, answer left in mailbox")
		return false, nil
	}
	return o.deliverPending(ctx, hub.SID, senior, domain.RoleAnswer, domain.EventNewAnswer)
}

// RelayCandidate forwards an ICE candidate from the hub or staff member of
// senior. Undeliverable candidates are dropped without telling the sender.
func (o *Orchestrator) RelayCandidate(ctx context.Context, sid domain.SessionID, senior domain.SeniorID, candidate json.RawMessage) error {
	_, err := o.actorFor(ctx, sid, senior, "")
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrForbidden):
		return err
	case err != nil:
		log.Error().Err(err).Str("module", "orch.signal").Str("sid", string(sid)).Int64("senior_id", int64(senior)).Msg("authorize candidate, dropping")
		return nil
	}
	o.ICE.Relay(ctx, sid, senior, candidate)
	return nil
}

func (o *Orchestrator) deliverPending(ctx context.Context, to domain.SessionID, senior domain.SeniorID, role domain.SignalRole, event string) (bool, error) {
	p, ok, err := o.Mailbox.Consume(ctx, senior, role)
	if err != nil || !ok {
		return false, err
	}
	if !o.emit(ctx, to, event, p) {
		log.Warn().Str("module", "orch.signal").Str("sid", string(to)).Int64("senior_id", int64(senior)).Str("role", string(role)).Msg("payload consumed but not delivered")
		return false, nil
	}
	return true, nil
}
