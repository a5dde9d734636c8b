package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	sessionKeyPrefix    = "session:sid:"
	hubIndexKeyPrefix   = "session:hub_id:"
	staffIndexKeyPrefix = "session:staff_id:"
)

var ErrCorruptRecord = errors.New("directory: corrupt connection record")

func sessionKey(sid domain.SessionID) string { return sessionKeyPrefix + string(sid) }
func hubIndexKey(id domain.HubID) string     { return hubIndexKeyPrefix + id.String() }
func staffIndexKey(id domain.StaffID) string { return staffIndexKeyPrefix + id.String() }

// SessionDirectory maps live connections to actors. State lives in the
// store only. The newest connection of an actor owns its index entry.
type SessionDirectory struct {
	store core.KeyValueStore
}

func NewSessionDirectory(store core.KeyValueStore) *SessionDirectory {
	return &SessionDirectory{store: store}
}

// Put writes the record and its actor index in one batch. An index entry
// held by an older connection is overwritten; that connection's own record
// stays until it disconnects.
func (d *SessionDirectory) Put(ctx context.Context, info domain.ConnectionInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("directory: put %s: %w", info.SID, err)
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("directory: put %s: %w", info.SID, err)
	}

	b := core.NewBatch().Set(sessionKey(info.SID), string(raw), 0)
	switch {
	case info.HubID != nil:
		b.Set(hubIndexKey(*info.HubID), string(info.SID), 0)
	case info.StaffID != nil:
		b.Set(staffIndexKey(*info.StaffID), string(info.SID), 0)
	}
	if err := d.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("directory: put %s: %w", info.SID, err)
	}
	log.Debug().Str("module", "app.directory").Str("sid", string(info.SID)).Str("kind", string(info.Kind)).Msg("put")
	return nil
}

func (d *SessionDirectory) GetByConnectionID(ctx context.Context, sid domain.SessionID) (domain.ConnectionInfo, bool, error) {
	raw, err := d.store.Get(ctx, sessionKey(sid))
	if errors.Is(err, core.ErrMiss) {
		return domain.ConnectionInfo{}, false, nil
	}
	if err != nil {
		return domain.ConnectionInfo{}, false, fmt.Errorf("directory: get %s: %w", sid, err)
	}
	var info domain.ConnectionInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return domain.ConnectionInfo{}, false, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, sid, err)
	}
	return info, true, nil
}

func (d *SessionDirectory) GetByHubID(ctx context.Context, id domain.HubID) (domain.ConnectionInfo, bool, error) {
	return d.resolve(ctx, hubIndexKey(id))
}

func (d *SessionDirectory) GetByStaffID(ctx context.Context, id domain.StaffID) (domain.ConnectionInfo, bool, error) {
	return d.resolve(ctx, staffIndexKey(id))
}

// resolve follows an index entry to its record. A dangling entry, left by a
// disconnect in flight, reads as absent.
func (d *SessionDirectory) resolve(ctx context.Context, indexKey string) (domain.ConnectionInfo, bool, error) {
	sid, err := d.store.Get(ctx, indexKey)
	if errors.Is(err, core.ErrMiss) {
		return domain.ConnectionInfo{}, false, nil
	}
	if err != nil {
		return domain.ConnectionInfo{}, false, fmt.Errorf("directory: index %s: %w", indexKey, err)
	}
	return d.GetByConnectionID(ctx, domain.SessionID(sid))
}

// Delete removes the record and every index entry still pointing at it.
// Deleting an absent record is a no-op.
func (d *SessionDirectory) Delete(ctx context.Context, sid domain.SessionID) error {
	info, ok, err := d.GetByConnectionID(ctx, sid)
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return err
	}
	if !ok && err == nil {
		return nil
	}

	b := core.NewBatch().Del(sessionKey(sid))
	if info.HubID != nil {
		b.DelIfEqual(hubIndexKey(*info.HubID), string(sid))
	}
	if info.StaffID != nil {
		b.DelIfEqual(staffIndexKey(*info.StaffID), string(sid))
	}
	if err := d.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("directory: delete %s: %w", sid, err)
	}
	log.Debug().Str("module", "app.directory").Str("sid", string(sid)).Msg("deleted")
	return nil
}
