package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type hubKeys map[string]domain.HubID

func (h hubKeys) HubByKeyHash(_ context.Context, hash string) (domain.HubID, bool, error) {
	id, ok := h[hash]
	return id, ok, nil
}

func TestVerifyHubCredential(t *testing.T) {
	v := NewVerifier("secret", hubKeys{HashAPIKey("k-123"): 3})
	ctx := context.Background()

	hub, err := v.VerifyHubCredential(ctx, "k-123")
	require.NoError(t, err)
	require.Equal(t, domain.HubID(3), hub)

	_, err = v.VerifyHubCredential(ctx, "k-999")
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = v.VerifyHubCredential(ctx, "")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestHashAPIKey(t *testing.T) {
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", HashAPIKey("hello"))
}

func TestVerifyStaffCredential(t *testing.T) {
	v := NewVerifier("secret", nil)
	token, err := v.IssueStaffToken(11, time.Hour)
	require.NoError(t, err)

	staff, err := v.VerifyStaffCredential(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, domain.StaffID(11), staff)
}

func TestVerifyStaffCredentialRejects(t *testing.T) {
	v := NewVerifier("secret", nil)
	ctx := context.Background()
	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"garbage":      "not.a.jwt",
		"wrong secret": sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "11", ExpiresAt: exp}),
		"expired":      sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "11", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}),
		"no expiry":    sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "11"}),
		"bad subject":  sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "nurse", ExpiresAt: exp}),
		"wrong method": sign(jwt.SigningMethodHS512, []byte("secret"), jwt.RegisteredClaims{Subject: "11", ExpiresAt: exp}),
		"alg none":     sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: "11", ExpiresAt: exp}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyStaffCredential(ctx, token)
			require.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestVerifyStaffCredentialWithoutSecret(t *testing.T) {
	_, err := NewVerifier("", nil).VerifyStaffCredential(context.Background(), "x")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyHubCredentialBackendError(t *testing.T) {
	v := NewVerifier("secret", failingKeys{})
	_, err := v.VerifyHubCredential(context.Background(), "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredential)
}

type failingKeys struct{}

func (failingKeys) HubByKeyHash(context.Context, string) (domain.HubID, bool, error) {
	return 0, false, errors.New("db down")
}
