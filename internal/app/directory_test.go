package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryPutAndGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	dir := NewSessionDirectory(store)

	hub := domain.NewHubConnection("sid-hub", 7, seniorPtr(42))
	staff := domain.NewStaffConnection("sid-staff", 3)
	require.NoError(t, dir.Put(ctx, hub))
	require.NoError(t, dir.Put(ctx, staff))

	got, ok, err := dir.GetByConnectionID(ctx, "sid-hub")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hub, got)

	got, ok, err = dir.GetByHubID(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SessionID("sid-hub"), got.SID)

	got, ok, err = dir.GetByStaffID(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, staff, got)

	v, err := mr.Get("session:hub_id:7")
	require.NoError(t, err)
	assert.Equal(t, "sid-hub", v)
	assert.True(t, mr.Exists("session:staff_id:3"))
}

func TestDirectoryAbsent(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	dir := NewSessionDirectory(store)

	_, ok, err := dir.GetByConnectionID(ctx, "nope")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = dir.GetByHubID(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = dir.GetByStaffID(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectoryRejectsInvalidInfo(t *testing.T) {
	store, _ := newStore(t)
	dir := NewSessionDirectory(store)
	err := dir.Put(context.Background(), domain.ConnectionInfo{SID: "x", Kind: domain.ActorHub})
	assert.ErrorIs(t, err, domain.ErrActorIDMismatch)
}

func TestDirectoryLastWriterWins(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	dir := NewSessionDirectory(store)

	for i := 0; i < 5; i++ {
		require.NoError(t, dir.Put(ctx, domain.NewHubConnection(domain.SessionID(fmt.Sprintf("sid-%d", i)), 7, nil)))
		got, ok, err := dir.GetByHubID(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.SessionID(fmt.Sprintf("sid-%d", i)), got.SID)
	}

	// superseded records are not evicted
	_, ok, err := dir.GetByConnectionID(ctx, "sid-0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirectoryDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	dir := NewSessionDirectory(store)

	require.NoError(t, dir.Put(ctx, domain.NewStaffConnection("sid-staff", 3)))
	require.NoError(t, dir.Delete(ctx, "sid-staff"))
	require.NoError(t, dir.Delete(ctx, "sid-staff"))

	_, ok, err := dir.GetByStaffID(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("session:staff_id:3"))
	assert.False(t, mr.Exists("session:sid:sid-staff"))
}

func TestDirectoryStaleDeleteKeepsNewerIndex(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	dir := NewSessionDirectory(store)

	require.NoError(t, dir.Put(ctx, domain.NewHubConnection("old", 7, nil)))
	require.NoError(t, dir.Put(ctx, domain.NewHubConnection("new", 7, nil)))
	require.NoError(t, dir.Delete(ctx, "old"))

	got, ok, err := dir.GetByHubID(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SessionID("new"), got.SID)

	require.NoError(t, dir.Delete(ctx, "new"))
	_, ok, err = dir.GetByHubID(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectoryDanglingIndexIsAbsent(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	dir := NewSessionDirectory(store)

	require.NoError(t, dir.Put(ctx, domain.NewHubConnection("sid-hub", 7, nil)))
	mr.Del("session:sid:sid-hub")

	_, ok, err := dir.GetByHubID(ctx, 7)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectoryCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	dir := NewSessionDirectory(store)

	require.NoError(t, mr.Set("session:sid:bad", "{not json"))
	_, _, err := dir.GetByConnectionID(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorruptRecord)

	require.NoError(t, dir.Delete(ctx, "bad"))
	assert.False(t, mr.Exists("session:sid:bad"))
}

func TestDirectoryStoreDown(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	dir := NewSessionDirectory(store)
	mr.Close()

	assert.Error(t, dir.Put(ctx, domain.NewStaffConnection("s", 1)))
	_, ok, err := dir.GetByStaffID(ctx, 1)
	assert.Error(t, err)
	assert.False(t, ok)
}
