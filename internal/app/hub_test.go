package app

import (
	"context"
	"sync"
	"testing"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mu        sync.Mutex
	published []domain.SessionID
}

func (b *fakeBus) Publish(_ context.Context, sid domain.SessionID, _ core.Frame) error {
	b.mu.Lock()
	b.published = append(b.published, sid)
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, _ func(domain.SessionID, core.Frame)) error {
	<-ctx.Done()
	return nil
}

func TestHubEmitLocal(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	h := NewHub(nil, nil, metrics)
	conn := &fakeConn{}
	h.Bind("s1", conn, func() {})
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Connections))

	ok := h.Emit(context.Background(), "s1", domain.EventPong, nil)
	require.True(t, ok)
	frames := conn.received()
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"event":"pong"}`, string(frames[0]))

	h.Unbind("s1")
	h.Unbind("s1")
	assert.Equal(t, 0, h.Count())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Connections))
}

func TestHubEmitRemoteGoesThroughBus(t *testing.T) {
	bus := &fakeBus{}
	h := NewHub(bus, nil, nil)

	assert.True(t, h.Emit(context.Background(), "elsewhere", domain.EventPong, nil))
	assert.Equal(t, []domain.SessionID{"elsewhere"}, bus.published)
}

func TestHubEmitWithoutBus(t *testing.T) {
	h := NewHub(nil, nil, nil)
	assert.False(t, h.Emit(context.Background(), "nobody", domain.EventPong, nil))
}

func TestHubBackpressureKicks(t *testing.T) {
	h := NewHub(nil, SimplePolicy{}, nil)
	conn := &fakeConn{full: true}
	canceled := false
	h.Bind("s1", conn, func() { canceled = true })

	assert.False(t, h.Emit(context.Background(), "s1", domain.EventPong, nil))
	assert.True(t, canceled)
	assert.True(t, conn.isClosed())
}

func TestHubBackpressureDropsFrame(t *testing.T) {
	h := NewHub(nil, TolerantPolicy{}, nil)
	conn := &fakeConn{full: true}
	canceled := false
	h.Bind("s1", conn, func() { canceled = true })

	assert.False(t, h.Emit(context.Background(), "s1", domain.EventPong, nil))
	assert.False(t, canceled)
	assert.False(t, conn.isClosed())
}

func TestHubOnBusFrame(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	h := NewHub(nil, nil, metrics)
	conn := &fakeConn{}
	h.Bind("s1", conn, nil)

	h.OnBusFrame("s1", core.Frame(`{"event":"pong"}`))
	h.OnBusFrame("s2", core.Frame(`{"event":"pong"}`))

	assert.Len(t, conn.received(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BusDeliveries))
}

func TestHubCancel(t *testing.T) {
	h := NewHub(nil, nil, nil)
	assert.False(t, h.Cancel("none"))

	called := false
	h.Bind("s1", &fakeConn{}, func() { called = true })
	assert.True(t, h.Cancel("s1"))
	assert.True(t, called)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	require.Equal(t, KickMember, p.OnBackPressure("s"))

	p, err = PolicyByName("drop")
	require.NoError(t, err)
	require.Equal(t, DropFrame, p.OnBackPressure("s"))

	_, err = PolicyByName("ignore")
	require.Error(t, err)
}
