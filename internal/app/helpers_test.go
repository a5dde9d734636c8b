package app

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/carelink/internal/adapters/kv"
	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T) (*kv.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return kv.NewStore(client), mr
}

type sentEvent struct {
	SID   domain.SessionID
	Event string
	Data  any
}

type recordingEmitter struct {
	mu     sync.Mutex
	sent   []sentEvent
	down   map[domain.SessionID]bool
	onEmit func(sentEvent)
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{down: make(map[domain.SessionID]bool)}
}

func (e *recordingEmitter) Emit(_ context.Context, sid domain.SessionID, event string, data any) bool {
	ev := sentEvent{SID: sid, Event: event, Data: data}
	e.mu.Lock()
	if e.down[sid] {
		e.mu.Unlock()
		return false
	}
	e.sent = append(e.sent, ev)
	hook := e.onEmit
	e.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
	return true
}

func (e *recordingEmitter) events() []sentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sentEvent(nil), e.sent...)
}

func (e *recordingEmitter) setDown(sid domain.SessionID) {
	e.mu.Lock()
	e.down[sid] = true
	e.mu.Unlock()
}

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) received() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func seniorPtr(id domain.SeniorID) *domain.SeniorID { return &id }
