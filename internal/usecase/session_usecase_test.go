package usecase

import (
	"context"
	"testing"
	"time"

	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture(ps ...user.Profile) (*Sessions, *jwt.HMACService) {
	tokens := jwt.NewHMACService("access", "refresh", 15*time.Minute, time.Hour)
	return NewSessionUsecase(tokens, NewUserUsecase(newFakeProfiles(ps...)), nil), tokens
}

func TestSessions_RefreshUsesStoredRole(t *testing.T) {
	p := user.Profile{UserID: uuid.New(), Email: "hr@example.com", Role: user.RoleHR}
	uc, tokens := newSessionFixture(p)

	refresh, err := tokens.GenerateRefreshToken(p.UserID)
	require.NoError(t, err)

	got, err := uc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, got.ExpiresIn)
	assert.NotEmpty(t, got.RefreshToken)

	claims, err := tokens.ValidateToken(got.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, claims.UserID)
	assert.Equal(t, string(user.RoleHR), claims.Role)
	assert.Equal(t, "hr@example.com", claims.Email)
}

func TestSessions_RefreshWithoutProfileIsLearner(t *testing.T) {
	uc, tokens := newSessionFixture()
	id := uuid.New()

	refresh, err := tokens.GenerateRefreshToken(id)
	require.NoError(t, err)

	got, err := uc.Refresh(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(got.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(user.RoleLearner), claims.Role)
}

func TestSessions_RefreshRejectsAccessTokens(t *testing.T) {
	uc, tokens := newSessionFixture()

	access, err := tokens.GenerateAccessToken(uuid.New(), "", string(user.RoleAdmin))
	require.NoError(t, err)

	_, err = uc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = uc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
