package orch

import (
	"context"
	"errors"

	"github.com/dkeye/carelink/internal/app"
	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("not allowed for this actor")
)

// Orchestrator ties the signaling components to the connection lifecycle.
// Every outbound event goes through Hub.
type Orchestrator struct {
	Hub         *app.Hub
	Directory   *app.SessionDirectory
	Mailbox     *app.SignalingMailbox
	ICE         *app.IceRelay
	Checks      *app.Coordinator
	Status      *app.StatusCache
	Resolver    *app.Resolver
	Auth        core.ActorAuth
	Lookup      core.ResponsibilityLookup
	Emergencies core.EmergencyRecorder
	Metrics     *app.Metrics
	ICEServers  []webrtc.ICEServer
}

// Connect binds a fresh socket and asks it to authenticate.
func (o *Orchestrator) Connect(ctx context.Context, sid domain.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Hub.Bind(sid, conn, cancel)
	o.Hub.Emit(ctx, sid, domain.EventRequestAuth, nil)
}

// Disconnect drops the directory record. Checks issued to or by the
// connection keep running until they time out.
func (o *Orchestrator) Disconnect(ctx context.Context, sid domain.SessionID) {
	if err := o.Directory.Delete(ctx, sid); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("directory delete on disconnect")
	}
	o.Hub.Unbind(sid)
}

func (o *Orchestrator) emit(ctx context.Context, sid domain.SessionID, event string, data any) bool {
	return o.Hub.Emit(ctx, sid, event, data)
}

// actor returns the authenticated identity behind sid.
func (o *Orchestrator) actor(ctx context.Context, sid domain.SessionID) (domain.ConnectionInfo, error) {
	info, ok, err := o.Directory.GetByConnectionID(ctx, sid)
	if err != nil {
		return info, err
	}
	if !ok {
		return info, ErrNotAuthenticated
	}
	return info, nil
}

// authorize checks that the actor is the hub installed for senior or the
// staff member responsible for them.
func (o *Orchestrator) authorize(ctx context.Context, info domain.ConnectionInfo, senior domain.SeniorID) error {
	switch info.Kind {
	case domain.ActorHub:
		if info.SeniorID != nil && *info.SeniorID == senior {
			return nil
		}
		hub, ok, err := o.Lookup.HubOwning(ctx, senior)
		if err != nil {
			return err
		}
		if ok && info.HubID != nil && hub == *info.HubID {
			return nil
		}
	case domain.ActorStaff:
		staff, ok, err := o.Lookup.StaffResponsibleFor(ctx, senior)
		if err != nil {
			return err
		}
		if ok && info.StaffID != nil && staff == *info.StaffID {
			return nil
		}
	}
	return ErrForbidden
}

// actorFor combines actor and authorize, optionally restricted to kind.
func (o *Orchestrator) actorFor(ctx context.Context, sid domain.SessionID, senior domain.SeniorID, kind domain.ActorKind) (domain.ConnectionInfo, error) {
	info, err := o.actor(ctx, sid)
	if err != nil {
		return info, err
	}
	if kind != "" && info.Kind != kind {
		return info, ErrForbidden
	}
	return info, o.authorize(ctx, info, senior)
}
