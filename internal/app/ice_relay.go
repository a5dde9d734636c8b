package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrBadCandidate = errors.New("ice: malformed candidate")

// ValidateCandidate checks that raw decodes as an ICE candidate init.
func ValidateCandidate(raw json.RawMessage) error {
	var ci webrtc.ICECandidateInit
	if len(raw) == 0 {
		return ErrBadCandidate
	}
	if err := json.Unmarshal(raw, &ci); err != nil {
		return errors.Join(ErrBadCandidate, err)
	}
	return nil
}

// IceRelay forwards candidates to whoever is on the other side of a
// senior's call. It keeps no state.
type IceRelay struct {
	dir      *SessionDirectory
	resolver *Resolver
	emitter  Emitter
	metrics  *Metrics
}

func NewIceRelay(dir *SessionDirectory, resolver *Resolver, emitter Emitter, metrics *Metrics) *IceRelay {
	return &IceRelay{dir: dir, resolver: resolver, emitter: emitter, metrics: metrics}
}

// Relay reports whether the candidate was forwarded. An unknown sender, an
// unreachable counterpart or a failing backend drops the candidate; the
// sender is never told.
func (r *IceRelay) Relay(ctx context.Context, sender domain.SessionID, senior domain.SeniorID, candidate json.RawMessage) bool {
	logger := log.With().Str("module", "app.ice").Str("sid", string(sender)).Int64("senior_id", int64(senior)).Logger()

	from, ok, err := r.dir.GetByConnectionID(ctx, sender)
	if err != nil {
		logger.Error().Err(err).Msg("sender lookup failed, dropping candidate")
		r.metrics.iceDropped()
		return false
	}
	if !ok {
		logger.Debug().Msg("sender not in directory, dropping candidate")
		r.metrics.iceDropped()
		return false
	}

	to, ok, err := r.resolver.Counterpart(ctx, from, senior)
	if err != nil {
		logger.Error().Err(err).Msg("counterpart lookup failed, dropping candidate")
		r.metrics.iceDropped()
		return false
	}
	if !ok {
		logger.Debug().Msg("no counterpart, dropping candidate")
		r.metrics.iceDropped()
		return false
	}

	msg := domain.ICECandidateMessage{SeniorID: senior, Candidate: candidate}
	if !r.emitter.Emit(ctx, to.SID, domain.EventNewICECandidate, msg) {
		r.metrics.iceDropped()
		return false
	}
	r.metrics.iceRelayed()
	return true
}
