package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolabs/pasture/internal/domain"
)

const secret = "unit-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken(secret, "user-1", time.Hour)
	require.NoError(t, err)

	userID, err := VerifyToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyTokenRejects(t *testing.T) {
	valid, err := IssueToken(secret, "user-1", time.Hour)
	require.NoError(t, err)

	expired, err := IssueToken(secret, "user-1", -time.Minute)
	require.NoError(t, err)

	// Signed with "none" to probe the algorithm check.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong secret", valid + "tampered"},
		{"expired", expired},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyToken(secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("different secret", func(t *testing.T) {
		_, err := VerifyToken("another-secret", valid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifyTokenRequiresSubject(t *testing.T) {
	token, err := IssueToken(secret, "", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(secret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestScopeCanSync(t *testing.T) {
	tests := []struct {
		role domain.Role
		want bool
	}{
		{domain.RoleOwner, true},
		{domain.RoleAdmin, true},
		{domain.RoleManager, true},
		{domain.RoleStaff, true},
		{domain.RoleViewer, false},
		{domain.Role("UNKNOWN"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			s := Scope{UserID: "u", FarmID: "f", Role: tt.role}
			assert.Equal(t, tt.want, s.CanSync())
		})
	}
}

func TestScopeContext(t *testing.T) {
	_, err := ScopeFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoScope)

	want := Scope{UserID: "user-1", FarmID: "farm-1", Role: domain.RoleStaff}
	ctx := WithScope(context.Background(), want)

	got, err := ScopeFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
