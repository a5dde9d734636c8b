package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/jackc/pgx/v5"
)

const (
	qStaffForSenior  = `SELECT staff_id FROM staff_senior_map WHERE senior_id = $1 ORDER BY map_id LIMIT 1`
	qSeniorsForStaff = `SELECT senior_id FROM staff_senior_map WHERE staff_id = $1 ORDER BY senior_id`
	qHubForSenior    = `SELECT hub_id FROM iot_hubs WHERE senior_id = $1`
	qSeniorForHub    = `SELECT senior_id FROM iot_hubs WHERE hub_id = $1`
	qHubByKeyHash    = `SELECT hub_id FROM iot_hubs WHERE api_key_hash = $1`
	qInsertEmergency = `INSERT INTO emergency_logs (senior_id, event_type, description, occurred_at) VALUES ($1, $2, $3, $4)`
)

// Store answers responsibility and credential lookups from the care
// database and appends to the emergency log.
type Store struct {
	db DB
}

var (
	_ core.ResponsibilityLookup = (*Store)(nil)
	_ core.EmergencyRecorder    = (*Store)(nil)
)

func NewStore(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) StaffResponsibleFor(ctx context.Context, senior domain.SeniorID) (domain.StaffID, bool, error) {
	id, ok, err := s.one(ctx, qStaffForSenior, int64(senior))
	if err != nil {
		return 0, false, fmt.Errorf("pg: staff for senior %d: %w", senior, err)
	}
	return domain.StaffID(id), ok, nil
}

func (s *Store) HubOwning(ctx context.Context, senior domain.SeniorID) (domain.HubID, bool, error) {
	id, ok, err := s.one(ctx, qHubForSenior, int64(senior))
	if err != nil {
		return 0, false, fmt.Errorf("pg: hub for senior %d: %w", senior, err)
	}
	return domain.HubID(id), ok, nil
}

func (s *Store) SeniorForHub(ctx context.Context, hub domain.HubID) (domain.SeniorID, bool, error) {
	id, ok, err := s.one(ctx, qSeniorForHub, int64(hub))
	if err != nil {
		return 0, false, fmt.Errorf("pg: senior for hub %d: %w", hub, err)
	}
	return domain.SeniorID(id), ok, nil
}

func (s *Store) SeniorsForStaff(ctx context.Context, staff domain.StaffID) ([]domain.SeniorID, error) {
	rows, err := s.db.Query(ctx, qSeniorsForStaff, int64(staff))
	if err != nil {
		return nil, fmt.Errorf("pg: seniors for staff %d: %w", staff, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("pg: seniors for staff %d: %w", staff, err)
	}
	out := make([]domain.SeniorID, len(ids))
	for i, id := range ids {
		out[i] = domain.SeniorID(id)
	}
	return out, nil
}

// HubByKeyHash finds the hub a hashed api key was issued to.
func (s *Store) HubByKeyHash(ctx context.Context, hash string) (domain.HubID, bool, error) {
	id, ok, err := s.one(ctx, qHubByKeyHash, hash)
	if err != nil {
		return 0, false, fmt.Errorf("pg: hub by key: %w", err)
	}
	return domain.HubID(id), ok, nil
}

func (s *Store) RecordEmergency(ctx context.Context, e domain.Emergency) error {
	_, err := s.db.Exec(ctx, qInsertEmergency, int64(e.SeniorID), e.EventType, e.Description, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("pg: record emergency for senior %d: %w", e.SeniorID, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) one(ctx context.Context, query string, arg any) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx, query, arg).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
