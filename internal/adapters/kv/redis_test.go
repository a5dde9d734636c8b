package kv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreGetSetMiss(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrMiss)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestStoreSetTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(59 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrMiss)
}

func TestStoreGetDel(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	v, err := s.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = s.GetDel(ctx, "k")
	assert.ErrorIs(t, err, core.ErrMiss)
}

func TestStoreGetDelConcurrent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Set(ctx, "k", "v", 0))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		hits int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.GetDel(ctx, "k"); err == nil {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, hits)
}

func TestStoreApply(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.Set(ctx, "old", "x", 0))

	err := s.Apply(ctx, core.NewBatch().
		Set("a", "1", 0).
		Set("b", "2", time.Second).
		Del("old"))
	require.NoError(t, err)

	assert.Equal(t, "1", mustGet(t, mr, "a"))
	assert.Equal(t, "2", mustGet(t, mr, "b"))
	assert.False(t, mr.Exists("old"))
	assert.Equal(t, time.Second, mr.TTL("b"))
}

func TestStoreApplyDelIfEqual(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.Set(ctx, "idx:1", "sid-a", 0))
	require.NoError(t, s.Set(ctx, "idx:2", "sid-b", 0))
	require.NoError(t, s.Set(ctx, "rec", "r", 0))

	err := s.Apply(ctx, core.NewBatch().
		Del("rec").
		DelIfEqual("idx:1", "sid-a").
		DelIfEqual("idx:2", "sid-a").
		DelIfEqual("idx:3", "sid-a"))
	require.NoError(t, err)

	assert.False(t, mr.Exists("rec"))
	assert.False(t, mr.Exists("idx:1"))
	assert.Equal(t, "sid-b", mustGet(t, mr, "idx:2"))
}

func TestStoreApplyEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Apply(context.Background(), nil))
	assert.NoError(t, s.Apply(context.Background(), core.NewBatch()))
}

func TestStoreScanPrefix(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Set(ctx, "sensor:status:1:door_bedroom", "a", 0))
	require.NoError(t, s.Set(ctx, "sensor:status:1:motion_kitchen", "b", 0))
	require.NoError(t, s.Set(ctx, "sensor:status:12:door_bedroom", "c", 0))

	got, err := s.ScanPrefix(ctx, "sensor:status:1:")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"sensor:status:1:door_bedroom":   "a",
		"sensor:status:1:motion_kitchen": "b",
	}, got)

	got, err = s.ScanPrefix(ctx, "sensor:status:99:")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStorePingAfterClose(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestBusRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	bus := NewBus(client, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan struct {
		sid   domain.SessionID
		frame core.Frame
	}, 1)
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, func(sid domain.SessionID, f core.Frame) {
			got <- struct {
				sid   domain.SessionID
				frame core.Frame
			}{sid, f}
		})
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(DefaultBusChannel)[DefaultBusChannel] == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, "sid-1", core.Frame(`{"event":"pong"}`)))

	select {
	case m := <-got:
		assert.Equal(t, domain.SessionID("sid-1"), m.sid)
		assert.JSONEq(t, `{"event":"pong"}`, string(m.frame))
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("subscribe did not return")
	}
}

func TestBusReplyRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	bus := NewBus(client, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan core.RoutedReply, 1)
	go func() { _ = bus.SubscribeReplies(ctx, func(r core.RoutedReply) { got <- r }) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(bus.ReplyChannel())[bus.ReplyChannel()] == 1
	}, time.Second, 10*time.Millisecond)

	want := core.RoutedReply{From: "hub-sid", CorrelationID: "c-1", Kind: domain.ReplySafe, Detail: "ok"}
	require.NoError(t, bus.PublishReply(ctx, want))
	// frames on the emit channel never reach reply subscribers
	require.NoError(t, bus.Publish(ctx, "hub-sid", core.Frame(`{"event":"pong"}`)))

	select {
	case r := <-got:
		assert.Equal(t, want, r)
	case <-time.After(time.Second):
		t.Fatal("reply not delivered")
	}
	select {
	case r := <-got:
		t.Fatalf("unexpected reply %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
