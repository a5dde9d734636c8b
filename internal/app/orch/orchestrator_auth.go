package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

var errNoCredential = errors.New("no credential in payload")

// Credentials carries either a hub api key or a staff token.
type Credentials struct {
	APIKey string
	Token  string
}

// Authenticate verifies creds and registers the connection in the
// directory, superseding any earlier connection of the same actor. On
// ErrAuthFailed auth_failed has already been sent and the caller must
// close the connection.
func (o *Orchestrator) Authenticate(ctx context.Context, sid domain.SessionID, creds Credentials) (domain.ConnectionInfo, error) {
	logger := log.With().Str("module", "orch.auth").Str("sid", string(sid)).Logger()

	var info domain.ConnectionInfo
	switch {
	case creds.APIKey != "":
		hub, err := o.Auth.VerifyHubCredential(ctx, creds.APIKey)
		if err != nil {
			return info, o.rejectAuth(ctx, sid, err)
		}
		var senior *domain.SeniorID
		id, ok, err := o.Lookup.SeniorForHub(ctx, hub)
		if err != nil {
			return info, fmt.Errorf("senior for hub %d: %w", hub, err)
		}
		if ok {
			senior = &id
		}
		info = domain.NewHubConnection(sid, hub, senior)
	case creds.Token != "":
		staff, err := o.Auth.VerifyStaffCredential(ctx, creds.Token)
		if err != nil {
			return info, o.rejectAuth(ctx, sid, err)
		}
		info = domain.NewStaffConnection(sid, staff)
	default:
		return info, o.rejectAuth(ctx, sid, errNoCredential)
	}

	// a connection re-authenticating as someone else must not keep the old index
	if err := o.Directory.Delete(ctx, sid); err != nil {
		return info, err
	}
	if err := o.Directory.Put(ctx, info); err != nil {
		return info, err
	}
	o.emit(ctx, sid, domain.EventAuthSuccess, domain.AuthSuccess{
		ActorKind:  info.Kind,
		HubID:      info.HubID,
		StaffID:    info.StaffID,
		SeniorID:   info.SeniorID,
		ICEServers: o.ICEServers,
	})
	logger.Info().Str("kind", string(info.Kind)).Msg("authenticated")

	if info.IsStaff() {
		o.sendSnapshots(ctx, info)
	}
	return info, nil
}

func (o *Orchestrator) rejectAuth(ctx context.Context, sid domain.SessionID, cause error) error {
	log.Warn().Err(cause).Str("module", "orch.auth").Str("sid", string(sid)).Msg("authentication rejected")
	o.emit(ctx, sid, domain.EventAuthFailed, domain.AuthFailure{Reason: "invalid credential"})
	return ErrAuthFailed
}

// sendSnapshots pushes what is known about every senior the staff member
// cares for. Failures are logged; the session stays usable.
func (o *Orchestrator) sendSnapshots(ctx context.Context, info domain.ConnectionInfo) {
	seniors, err := o.Lookup.SeniorsForStaff(ctx, *info.StaffID)
	if err != nil {
		log.Error().Err(err).Str("module", "orch.auth").Str("sid", string(info.SID)).Msg("seniors for staff")
		return
	}
	for _, senior := range seniors {
		snap, err := o.Status.Snapshot(ctx, senior)
		if err != nil {
			log.Error().Err(err).Str("module", "orch.auth").Int64("senior_id", int64(senior)).Msg("status snapshot")
			continue
		}
		o.emit(ctx, info.SID, domain.EventStatusSnapshot, snap)
	}
}
