package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredential = errors.New("invalid credential")

// HubKeys resolves the sha256 hex digest of an api key to its hub.
type HubKeys interface {
	HubByKeyHash(ctx context.Context, hash string) (domain.HubID, bool, error)
}

// Verifier checks hub api keys against the issued hashes and staff
// tokens as HS256 JWTs whose subject is the staff id.
type Verifier struct {
	secret []byte
	hubs   HubKeys
	leeway time.Duration
}

var _ core.ActorAuth = (*Verifier)(nil)

func NewVerifier(secret string, hubs HubKeys) *Verifier {
	return &Verifier{secret: []byte(secret), hubs: hubs, leeway: 30 * time.Second}
}

func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (v *Verifier) VerifyHubCredential(ctx context.Context, apiKey string) (domain.HubID, error) {
	if apiKey == "" {
		return 0, ErrInvalidCredential
	}
	hub, ok, err := v.hubs.HubByKeyHash(ctx, HashAPIKey(apiKey))
	if err != nil {
		return 0, fmt.Errorf("auth: hub key: %w", err)
	}
	if !ok {
		return 0, ErrInvalidCredential
	}
	return hub, nil
}

func (v *Verifier) VerifyStaffCredential(_ context.Context, token string) (domain.StaffID, error) {
	if len(v.secret) == 0 {
		return 0, fmt.Errorf("%w: no signing secret configured", ErrInvalidCredential)
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidCredential, claims.Subject)
	}
	return domain.StaffID(id), nil
}

// IssueStaffToken signs a token for staff valid for ttl.
func (v *Verifier) IssueStaffToken(staff domain.StaffID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   staff.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
