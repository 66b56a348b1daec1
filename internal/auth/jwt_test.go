package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/auth"
)

const testKey = "test-secret-key-for-testing-only"

func newJWT(now time.Time) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: testKey,
		Issuer:     "https://api.datamatch.dev",
		Audience:   "datamatch-api",
		TTL:        30 * time.Minute,
		Now:        func() time.Time { return now },
	})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	now := time.Now()
	svc := newJWT(now)

	token, expiresAt, err := svc.GenerateAccessToken("usr_ada")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, now.Add(30*time.Minute), expiresAt)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_ada", claims.ProfileID)
	assert.Equal(t, "usr_ada", claims.Subject)
	assert.Equal(t, "https://api.datamatch.dev", claims.Issuer)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newJWT(time.Now())

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	token, _, err := newJWT(issued).GenerateAccessToken("usr_ada")
	require.NoError(t, err)

	_, err = newJWT(time.Now()).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_Mismatch(t *testing.T) {
	token, _, err := newJWT(time.Now()).GenerateAccessToken("usr_ada")
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  auth.JWTConfig
	}{
		{"wrong key", auth.JWTConfig{SigningKey: "another-secret-key-entirely", Issuer: "https://api.datamatch.dev", Audience: "datamatch-api"}},
		{"wrong issuer", auth.JWTConfig{SigningKey: testKey, Issuer: "https://evil.example", Audience: "datamatch-api"}},
		{"wrong audience", auth.JWTConfig{SigningKey: testKey, Issuer: "https://api.datamatch.dev", Audience: "other-api"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewJWTService(tt.cfg).ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}
