package app

import (
	"context"
	"fmt"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
)

// Resolver turns a senior id into the live connection on either side.
type Resolver struct {
	dir    *SessionDirectory
	lookup core.ResponsibilityLookup
}

func NewResolver(dir *SessionDirectory, lookup core.ResponsibilityLookup) *Resolver {
	return &Resolver{dir: dir, lookup: lookup}
}

func (r *Resolver) StaffConnection(ctx context.Context, senior domain.SeniorID) (domain.ConnectionInfo, bool, error) {
	staff, ok, err := r.lookup.StaffResponsibleFor(ctx, senior)
	if err != nil {
		return domain.ConnectionInfo{}, false, fmt.Errorf("resolve staff for senior %d: %w", senior, err)
	}
	if !ok {
		return domain.ConnectionInfo{}, false, nil
	}
	return r.dir.GetByStaffID(ctx, staff)
}

func (r *Resolver) HubConnection(ctx context.Context, senior domain.SeniorID) (domain.ConnectionInfo, bool, error) {
	hub, ok, err := r.lookup.HubOwning(ctx, senior)
	if err != nil {
		return domain.ConnectionInfo{}, false, fmt.Errorf("resolve hub for senior %d: %w", senior, err)
	}
	if !ok {
		return domain.ConnectionInfo{}, false, nil
	}
	return r.dir.GetByHubID(ctx, hub)
}

// Counterpart resolves the other side of a senior's call relative to sender.
func (r *Resolver) Counterpart(ctx context.Context, sender domain.ConnectionInfo, senior domain.SeniorID) (domain.ConnectionInfo, bool, error) {
	switch sender.Kind {
	case domain.ActorHub:
		return r.StaffConnection(ctx, senior)
	case domain.ActorStaff:
		return r.HubConnection(ctx, senior)
	}
	return domain.ConnectionInfo{}, false, nil
}
