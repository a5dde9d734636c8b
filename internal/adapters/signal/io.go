package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const disconnectTimeout = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
		dctx, dcancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		ctl.Orch.Disconnect(dctx, sid)
		dcancel()
		cancel()
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		ctl.handleSignal(ctx, sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid domain.SessionID, c *WsSignalConn, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		ctl.sendError(ctx, sid, codeBadPayload, "frame must be {event, data}")
		return
	}

	h, ok := handlers[msg.Event]
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("event", msg.Event).Msg("unknown event")
		ctl.sendError(ctx, sid, codeUnknownEvent, "unknown event "+msg.Event)
		return
	}
	if err := h(ctl, ctx, sid, c, msg.Data); err != nil {
		ctl.fail(ctx, sid, msg.Event, err)
	}
}

func (ctl *SignalWSController) sendError(ctx context.Context, sid domain.SessionID, code, text string) {
	ctl.Orch.Hub.Emit(ctx, sid, domain.EventError, domain.ErrorNotice{Code: code, Error: text})
}
