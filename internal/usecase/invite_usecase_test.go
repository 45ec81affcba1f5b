package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInviteFixture() (*Invites, *fakeInvites, *fakeProfiles) {
	invites := newFakeInvites()
	profiles := newFakeProfiles()
	return NewInviteUsecase(invites, profiles, config.InviteConfig{TTL: time.Hour}, nil), invites, profiles
}

func TestInvites_CreateAndVerify(t *testing.T) {
	uc, invites, profiles := newInviteFixture()
	admin := user.Profile{UserID: uuid.New(), Role: user.RoleAdmin}

	created, err := uc.Create(context.Background(), admin, CreateInviteInput{Email: "  New.Hire@Example.com ", Role: user.RoleHR})
	require.NoError(t, err)
	assert.Equal(t, "new.hire@example.com", created.Invite.Email)
	assert.True(t, strings.HasPrefix(created.Code, created.Invite.ID.String()+"."))

	stored := invites.byID[created.Invite.ID]
	assert.NotContains(t, stored.SecretHash, strings.SplitN(created.Code, ".", 2)[1])

	newUser := uuid.New()
	inv, err := uc.Verify(context.Background(), VerifyInviteInput{Code: created.Code, UserID: uuid.NullUUID{UUID: newUser, Valid: true}, FullName: "New Hire"})
	require.NoError(t, err)
	require.NotNil(t, inv.UsedAt)

	p, ok := profiles.byUserID[newUser]
	require.True(t, ok)
	assert.Equal(t, user.RoleHR, p.Role)
	assert.Equal(t, "new.hire@example.com", p.Email)

	_, err = uc.Verify(context.Background(), VerifyInviteInput{Code: created.Code})
	assert.ErrorIs(t, err, ErrInviteUsed)
}

func TestInvites_Verify_Rejects(t *testing.T) {
	uc, _, _ := newInviteFixture()
	admin := user.Profile{UserID: uuid.New(), Role: user.RoleSuperAdmin}
	created, err := uc.Create(context.Background(), admin, CreateInviteInput{Email: "a@example.com", Role: user.RoleLearner})
	require.NoError(t, err)

	for _, code := range []string{"", "garbage", uuid.NewString() + ".secret", created.Invite.ID.String() + ".wrong"} {
		_, err := uc.Verify(context.Background(), VerifyInviteInput{Code: code})
		assert.ErrorIs(t, err, ErrInviteInvalid, "code %q", code)
	}

	uc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = uc.Verify(context.Background(), VerifyInviteInput{Code: created.Code})
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestInvites_Create_RoleCeiling(t *testing.T) {
	uc, _, _ := newInviteFixture()

	_, err := uc.Create(context.Background(), user.Profile{Role: user.RoleAdmin}, CreateInviteInput{Email: "x@example.com", Role: user.RoleSuperAdmin})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = uc.Create(context.Background(), user.Profile{Role: user.RoleHR}, CreateInviteInput{Email: "x@example.com", Role: user.RoleLearner})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = uc.Create(context.Background(), user.Profile{Role: user.RoleSuperAdmin}, CreateInviteInput{Email: "not-an-email", Role: user.RoleLearner})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Create(context.Background(), user.Profile{Role: user.RoleSuperAdmin}, CreateInviteInput{Email: "x@example.com", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
