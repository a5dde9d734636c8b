// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
)

var (
	ErrUnknownActorKind = errors.New("unknown actor kind")
	ErrActorIDMismatch  = errors.New("actor id does not match actor kind")
	ErrEmptySessionID   = errors.New("empty session id")
)

// SessionID identifies one live socket. It is never reused.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

type ActorKind string

const (
	ActorHub   ActorKind = "HUB"
	ActorStaff ActorKind = "STAFF"
)

type (
	HubID    int64
	StaffID  int64
	SeniorID int64
)

func (id HubID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id StaffID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id SeniorID) String() string { return strconv.FormatInt(int64(id), 10) }

// ConnectionInfo describes one authenticated connection. Exactly one of
// HubID and StaffID is set, matching Kind.
type ConnectionInfo struct {
	SID      SessionID `json:"sid"`
	Kind     ActorKind `json:"actor_kind"`
	HubID    *HubID    `json:"hub_id,omitempty"`
	StaffID  *StaffID  `json:"staff_id,omitempty"`
	SeniorID *SeniorID `json:"senior_id,omitempty"`
}

func NewHubConnection(sid SessionID, hub HubID, senior *SeniorID) ConnectionInfo {
	return ConnectionInfo{SID: sid, Kind: ActorHub, HubID: &hub, SeniorID: senior}
}

func NewStaffConnection(sid SessionID, staff StaffID) ConnectionInfo {
	return ConnectionInfo{SID: sid, Kind: ActorStaff, StaffID: &staff}
}

func (c ConnectionInfo) Validate() error {
	if c.SID == "" {
		return ErrEmptySessionID
	}
	switch c.Kind {
	case ActorHub:
		if c.HubID == nil || c.StaffID != nil {
			return ErrActorIDMismatch
		}
	case ActorStaff:
		if c.StaffID == nil || c.HubID != nil {
			return ErrActorIDMismatch
		}
	default:
		return ErrUnknownActorKind
	}
	return nil
}

func (c ConnectionInfo) IsHub() bool   { return c.Kind == ActorHub }
func (c ConnectionInfo) IsStaff() bool { return c.Kind == ActorStaff }
