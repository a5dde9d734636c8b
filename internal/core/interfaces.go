package core

import (
	"context"

	"github.com/dkeye/carelink/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks . ActorAuth,ResponsibilityLookup,EmergencyRecorder

// ActorAuth verifies the credential presented in an authenticate event.
// Any failure to verify is reported as an error; callers do not tell
// a bad credential apart from a backend failure.
type ActorAuth interface {
	VerifyHubCredential(ctx context.Context, apiKey string) (domain.HubID, error)
	VerifyStaffCredential(ctx context.Context, token string) (domain.StaffID, error)
}

// ResponsibilityLookup answers who cares for whom. ok=false means no such
// relation exists; err is reserved for backend failures.
type ResponsibilityLookup interface {
	StaffResponsibleFor(ctx context.Context, senior domain.SeniorID) (domain.StaffID, bool, error)
	HubOwning(ctx context.Context, senior domain.SeniorID) (domain.HubID, bool, error)
	SeniorForHub(ctx context.Context, hub domain.HubID) (domain.SeniorID, bool, error)
	SeniorsForStaff(ctx context.Context, staff domain.StaffID) ([]domain.SeniorID, error)
}

type EmergencyRecorder interface {
	RecordEmergency(ctx context.Context, e domain.Emergency) error
}
