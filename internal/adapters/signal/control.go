package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/carelink/internal/app/orch"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

func handlePing(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, _ *WsSignalConn, _ json.RawMessage) error {
	ctl.Orch.Ping(ctx, sid)
	return nil
}

// handleAuthenticate closes the connection on a rejected credential, after
// auth_failed has been queued.
func handleAuthenticate(ctl *SignalWSController, ctx context.Context, sid domain.SessionID, c *WsSignalConn, data json.RawMessage) error {
	if !ctl.Limiter.Allow(c.addr) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("remote", c.addr).Msg("auth rate limited")
		ctl.fail(ctx, sid, domain.EventAuthenticate, errRateLimited)
		c.Close()
		return nil
	}

	var p authenticatePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	_, err := ctl.Orch.Authenticate(ctx, sid, orch.Credentials{APIKey: p.APIKey, Token: p.Token})
	if errors.Is(err, orch.ErrAuthFailed) {
		c.Close()
		return nil
	}
	return err
}
