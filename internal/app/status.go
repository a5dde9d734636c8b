package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/rs/zerolog/log"
)

func seniorStatusKey(senior domain.SeniorID) string {
	return "senior:" + senior.String() + ":status"
}

func sensorStatusPrefix(senior domain.SeniorID) string {
	return "sensor:status:" + senior.String() + ":"
}

// StatusCache keeps the latest risk level and sensor readings per senior
// and pushes every change to the responsible staff connection.
type StatusCache struct {
	store    core.KeyValueStore
	resolver *Resolver
	emitter  Emitter
}

func NewStatusCache(store core.KeyValueStore, resolver *Resolver, emitter Emitter) *StatusCache {
	return &StatusCache{store: store, resolver: resolver, emitter: emitter}
}

// UpdateSeniorStatus overwrites the cached status and notifies staff when
// they are online. It reports whether a notification went out.
func (s *StatusCache) UpdateSeniorStatus(ctx context.Context, senior domain.SeniorID, level domain.RiskLevel, reason string) (domain.SeniorStatus, bool, error) {
	st := domain.SeniorStatus{
		SeniorID:    senior,
		RiskLevel:   level,
		Reason:      reason,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.put(ctx, seniorStatusKey(senior), st); err != nil {
		return st, false, fmt.Errorf("status: senior %d: %w", senior, err)
	}
	return st, s.notify(ctx, senior, domain.EventSeniorStatusChange, st), nil
}

// UpdateSensorStatus overwrites one sensor's reading. A zero timestamp
// means now.
func (s *StatusCache) UpdateSensorStatus(ctx context.Context, senior domain.SeniorID, sensorID string, value bool, at time.Time) (domain.SensorStatus, bool, error) {
	if at.IsZero() {
		at = time.Now()
	}
	kind, location := domain.SplitSensorID(sensorID)
	st := domain.SensorStatus{
		SeniorID:    senior,
		SensorID:    sensorID,
		SensorKind:  kind,
		Location:    location,
		Value:       value,
		LastUpdated: at.UTC(),
	}
	if err := s.put(ctx, sensorStatusPrefix(senior)+sensorID, st); err != nil {
		return st, false, fmt.Errorf("status: sensor %s of senior %d: %w", sensorID, senior, err)
	}
	return st, s.notify(ctx, senior, domain.EventSensorStatusChange, st), nil
}

func (s *StatusCache) GetSeniorStatus(ctx context.Context, senior domain.SeniorID) (domain.SeniorStatus, bool, error) {
	raw, err := s.store.Get(ctx, seniorStatusKey(senior))
	if errors.Is(err, core.ErrMiss) {
		return domain.SeniorStatus{}, false, nil
	}
	if err != nil {
		return domain.SeniorStatus{}, false, fmt.Errorf("status: senior %d: %w", senior, err)
	}
	var st domain.SeniorStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return domain.SeniorStatus{}, false, fmt.Errorf("status: corrupt senior %d: %w", senior, err)
	}
	return st, true, nil
}

// GetAllSensorStatuses returns every sensor reading known for senior,
// ordered by sensor id. Unreadable entries are skipped.
func (s *StatusCache) GetAllSensorStatuses(ctx context.Context, senior domain.SeniorID) ([]domain.SensorStatus, error) {
	entries, err := s.store.ScanPrefix(ctx, sensorStatusPrefix(senior))
	if err != nil {
		return nil, fmt.Errorf("status: sensors of senior %d: %w", senior, err)
	}
	out := make([]domain.SensorStatus, 0, len(entries))
	for key, raw := range entries {
		var st domain.SensorStatus
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			log.Error().Err(err).Str("module", "app.status").Str("key", key).Msg("corrupt sensor status")
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SensorID < out[j].SensorID })
	return out, nil
}

func (s *StatusCache) Snapshot(ctx context.Context, senior domain.SeniorID) (domain.StatusSnapshot, error) {
	snap := domain.StatusSnapshot{SeniorID: senior}
	st, ok, err := s.GetSeniorStatus(ctx, senior)
	if err != nil {
		return snap, err
	}
	if ok {
		snap.Status = &st
	}
	if snap.Sensors, err = s.GetAllSensorStatuses(ctx, senior); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *StatusCache) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, string(raw), 0)
}

// notify never fails the update; the cache already holds the new value.
func (s *StatusCache) notify(ctx context.Context, senior domain.SeniorID, event string, v any) bool {
	logger := log.With().Str("module", "app.status").Int64("senior_id", int64(senior)).Str("event", event).Logger()
	staff, ok, err := s.resolver.StaffConnection(ctx, senior)
	if err != nil {
		logger.Error().Err(err).Msg("resolve staff")
		return false
	}
	if !ok {
		logger.Debug().Msg("staff offline, cached only")
		return false
	}
	return s.emitter.Emit(ctx, staff.SID, event, v)
}
