package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

// Emitter sends one named event to a session, wherever it lives.
type Emitter interface {
	Emit(ctx context.Context, sid domain.SessionID, event string, data any) bool
}

type hubEntry struct {
	Conn   core.SignalConnection
	Cancel context.CancelFunc
}

// Hub is the table of sockets held by this process. Sockets owned by
// other processes are reached through the bus.
type Hub struct {
	mu      sync.RWMutex
	conns   map[domain.SessionID]*hubEntry
	bus     core.Bus
	policy  Policy
	metrics *Metrics
}

var _ Emitter = (*Hub)(nil)

func NewHub(bus core.Bus, policy Policy, metrics *Metrics) *Hub {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Hub{
		conns:   make(map[domain.SessionID]*hubEntry),
		bus:     bus,
		policy:  policy,
		metrics: metrics,
	}
}

func (h *Hub) Bind(sid domain.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	h.mu.Lock()
	_, existed := h.conns[sid]
	h.conns[sid] = &hubEntry{Conn: conn, Cancel: cancel}
	h.mu.Unlock()
	if !existed {
		h.metrics.connOpened()
	}
	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Msg("bound connection")
}

func (h *Hub) Unbind(sid domain.SessionID) {
	h.mu.Lock()
	_, existed := h.conns[sid]
	delete(h.conns, sid)
	h.mu.Unlock()
	if existed {
		h.metrics.connClosed()
		log.Info().Str("module", "app.hub").Str("sid", string(sid)).Msg("unbound connection")
	}
}

func (h *Hub) Local(sid domain.SessionID) (core.SignalConnection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.conns[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Cancel(sid domain.SessionID) bool {
	h.mu.RLock()
	e, ok := h.conns[sid]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Msg("canceled connection")
	return true
}

func (h *Hub) Emit(ctx context.Context, sid domain.SessionID, event string, data any) bool {
	f, err := domain.EncodeMessage(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("encode")
		return false
	}
	return h.Send(ctx, sid, f)
}

// Send delivers f locally when the socket lives here, otherwise hands it
// to the bus. It reports whether the frame left this process's hands.
func (h *Hub) Send(ctx context.Context, sid domain.SessionID, f core.Frame) bool {
	if _, ok := h.Local(sid); ok {
		return h.DeliverLocal(sid, f)
	}
	if h.bus == nil {
		return false
	}
	if err := h.bus.Publish(ctx, sid, f); err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("sid", string(sid)).Msg("bus publish")
		return false
	}
	return true
}

// DeliverLocal writes f to a socket held by this process. Frames for
// unknown sessions are ignored.
func (h *Hub) DeliverLocal(sid domain.SessionID, f core.Frame) bool {
	conn, ok := h.Local(sid)
	if !ok {
		return false
	}
	err := conn.TrySend(f)
	if err == nil {
		return true
	}
	if !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "app.hub").Str("sid", string(sid)).Msg("send on closed connection")
		return false
	}

	h.metrics.backpressure()
	switch h.policy.OnBackPressure(sid) {
	case KickMember:
		log.Warn().Str("module", "app.hub").Str("sid", string(sid)).Msg("send buffer full, kicking")
		h.Cancel(sid)
		conn.Close()
	case MarkSlow:
		log.Warn().Str("module", "app.hub").Str("sid", string(sid)).Msg("slow connection, frame dropped")
	case DropFrame, NoAction:
	}
	return false
}

// OnBusFrame is the bus subscriber callback.
func (h *Hub) OnBusFrame(sid domain.SessionID, f core.Frame) {
	if h.DeliverLocal(sid, f) {
		h.metrics.busDelivered()
	}
}
