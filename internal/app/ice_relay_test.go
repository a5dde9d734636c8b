package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/carelink/internal/core/mocks"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const candidate = `{"candidate":"candidate:1 1 udp 2122260223 10.0.0.2 50000 typ host","sdpMid":"0","sdpMLineIndex":0}`

type relayFixture struct {
	dir     *SessionDirectory
	lookup  *mocks.MockResponsibilityLookup
	emitter *recordingEmitter
	metrics *Metrics
	relay   *IceRelay
	mr      *miniredis.Miniredis
}

func newRelayFixture(t *testing.T) *relayFixture {
	ctrl := gomock.NewController(t)
	store, mr := newStore(t)
	f := &relayFixture{
		mr:      mr,
		dir:     NewSessionDirectory(store),
		lookup:  mocks.NewMockResponsibilityLookup(ctrl),
		emitter: newRecordingEmitter(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	f.relay = NewIceRelay(f.dir, NewResolver(f.dir, f.lookup), f.emitter, f.metrics)
	return f
}

func TestIceRelayHubToStaff(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture(t)
	require.NoError(t, f.dir.Put(ctx, domain.NewHubConnection("hub", 7, seniorPtr(42))))
	require.NoError(t, f.dir.Put(ctx, domain.NewStaffConnection("staff", 3)))
	f.lookup.EXPECT().StaffResponsibleFor(gomock.Any(), domain.SeniorID(42)).Return(domain.StaffID(3), true, nil)

	ok := f.relay.Relay(ctx, "hub", 42, json.RawMessage(candidate))
	assert.True(t, ok)

	sent := f.emitter.events()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.SessionID("staff"), sent[0].SID)
	assert.Equal(t, domain.EventNewICECandidate, sent[0].Event)
	msg := sent[0].Data.(domain.ICECandidateMessage)
	assert.JSONEq(t, candidate, string(msg.Candidate))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ICERelayed))
}

func TestIceRelayStaffToHub(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture(t)
	require.NoError(t, f.dir.Put(ctx, domain.NewHubConnection("hub", 7, seniorPtr(42))))
	require.NoError(t, f.dir.Put(ctx, domain.NewStaffConnection("staff", 3)))
	f.lookup.EXPECT().HubOwning(gomock.Any(), domain.SeniorID(42)).Return(domain.HubID(7), true, nil)

	ok := f.relay.Relay(ctx, "staff", 42, json.RawMessage(candidate))
	assert.True(t, ok)
	require.Len(t, f.emitter.events(), 1)
	assert.Equal(t, domain.SessionID("hub"), f.emitter.events()[0].SID)
}

func TestIceRelayDropsSilently(t *testing.T) {
	ctx := context.Background()

	t.Run("counterpart offline", func(t *testing.T) {
		f := newRelayFixture(t)
		require.NoError(t, f.dir.Put(ctx, domain.NewStaffConnection("staff", 3)))
		f.lookup.EXPECT().HubOwning(gomock.Any(), domain.SeniorID(42)).Return(domain.HubID(7), true, nil)

		ok := f.relay.Relay(ctx, "staff", 42, json.RawMessage(candidate))
		assert.False(t, ok)
		assert.Empty(t, f.emitter.events())
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ICEDropped))
	})

	t.Run("no responsible staff", func(t *testing.T) {
		f := newRelayFixture(t)
		require.NoError(t, f.dir.Put(ctx, domain.NewHubConnection("hub", 7, nil)))
		f.lookup.EXPECT().StaffResponsibleFor(gomock.Any(), domain.SeniorID(42)).Return(domain.StaffID(0), false, nil)

		ok := f.relay.Relay(ctx, "hub", 42, json.RawMessage(candidate))
		assert.False(t, ok)
	})

	t.Run("unknown sender", func(t *testing.T) {
		f := newRelayFixture(t)
		ok := f.relay.Relay(ctx, "ghost", 42, json.RawMessage(candidate))
		assert.False(t, ok)
	})

	t.Run("counterpart socket gone", func(t *testing.T) {
		f := newRelayFixture(t)
		require.NoError(t, f.dir.Put(ctx, domain.NewStaffConnection("staff", 3)))
		require.NoError(t, f.dir.Put(ctx, domain.NewHubConnection("hub", 7, nil)))
		f.lookup.EXPECT().HubOwning(gomock.Any(), domain.SeniorID(42)).Return(domain.HubID(7), true, nil)
		f.emitter.setDown("hub")

		ok := f.relay.Relay(ctx, "staff", 42, json.RawMessage(candidate))
		assert.False(t, ok)
	})
}

func TestIceRelayLookupErrorDrops(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture(t)
	require.NoError(t, f.dir.Put(ctx, domain.NewStaffConnection("staff", 3)))
	f.lookup.EXPECT().HubOwning(gomock.Any(), gomock.Any()).Return(domain.HubID(0), false, errors.New("db down"))

	ok := f.relay.Relay(ctx, "staff", 42, json.RawMessage(candidate))
	assert.False(t, ok)
	assert.Empty(t, f.emitter.events())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ICEDropped))
}

func TestIceRelayStoreDownDrops(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture(t)
	f.mr.Close()

	ok := f.relay.Relay(ctx, "staff", 42, json.RawMessage(candidate))
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ICEDropped))
}

func TestValidateCandidate(t *testing.T) {
	assert.NoError(t, ValidateCandidate(json.RawMessage(candidate)))
	assert.ErrorIs(t, ValidateCandidate(nil), ErrBadCandidate)
	assert.ErrorIs(t, ValidateCandidate(json.RawMessage(`"candidate:1"`)), ErrBadCandidate)
}
