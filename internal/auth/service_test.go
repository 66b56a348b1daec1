package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/profile"
)

func TestService_IssueToken(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	repo := profile.NewInMemoryRepository()
	require.NoError(t, repo.Create(ctx, &profile.Profile{ID: "usr_ada", CreatedAt: now, UpdatedAt: now}))

	svc := auth.NewService(auth.ServiceConfig{
		JWTService: newJWT(now),
		Profiles:   repo,
		Now:        func() time.Time { return now },
	})

	resp, err := svc.IssueToken(ctx, "usr_ada")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(1800), resp.ExpiresIn)
	assert.Equal(t, "usr_ada", resp.ProfileID)

	id, err := svc.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr_ada", id)

	_, err = svc.IssueToken(ctx, "usr_nobody")
	assert.ErrorIs(t, err, auth.ErrUnknownProfile)
}
