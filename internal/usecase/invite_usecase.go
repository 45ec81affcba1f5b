package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateInviteInput struct {
	Email string
	Role  user.Role
}

type CreatedInvite struct {
	Invite user.Invite
	// Code is shown once; only its bcrypt hash is stored.
	Code string
}

type VerifyInviteInput struct {
	Code     string
	UserID   uuid.NullUUID
	FullName string
}

type InviteUsecase interface {
	Create(ctx context.Context, actor user.Profile, in CreateInviteInput) (CreatedInvite, error)
	Verify(ctx context.Context, in VerifyInviteInput) (user.Invite, error)
}

type Invites struct {
	invites  repository.InviteRepository
	profiles repository.UserProfileRepository
	ttl      time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewInviteUsecase(invites repository.InviteRepository, profiles repository.UserProfileRepository, cfg config.InviteConfig, log *logger.Logger) *Invites {
	if log == nil {
		log = logger.Nop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Invites{invites: invites, profiles: profiles, ttl: ttl, now: time.Now, log: log}
}

// Create issues an invite. Admins cannot hand out a role above their own.
func (u *Invites) Create(ctx context.Context, actor user.Profile, in CreateInviteInput) (CreatedInvite, error) {
	if !actor.Role.AtLeast(user.RoleAdmin) {
		return CreatedInvite{}, ErrForbidden
	}
	email := normalizeEmail(in.Email)
	if email == "" || !in.Role.Valid() {
		return CreatedInvite{}, ErrInvalidInput
	}
	if !actor.Role.AtLeast(in.Role) {
		return CreatedInvite{}, ErrForbidden
	}

	secret, err := newSecret()
	if err != nil {
		return CreatedInvite{}, internal("invite.secret", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return CreatedInvite{}, internal("invite.hash", err)
	}

	inv, err := u.invites.Create(ctx, user.Invite{
		ID:         uuid.New(),
		Email:      email,
		Role:       in.Role,
		SecretHash: string(hash),
		CreatedBy:  actor.UserID,
		ExpiresAt:  u.now().Add(u.ttl),
	})
	if err != nil {
		return CreatedInvite{}, internal("invite.create", err)
	}
	u.log.Info("invite created", "invite_id", inv.ID, "role", inv.Role, "created_by", actor.UserID)
	return CreatedInvite{Invite: inv, Code: inv.ID.String() + "." + secret}, nil
}

// Verify consumes an invite code. With a user id the invited role is written
// to that user's profile.
func (u *Invites) Verify(ctx context.Context, in VerifyInviteInput) (user.Invite, error) {
	id, secret, ok := splitCode(in.Code)
	if !ok {
		return user.Invite{}, ErrInviteInvalid
	}

	inv, err := u.invites.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return user.Invite{}, ErrInviteInvalid
		}
		return user.Invite{}, internal("invite.find", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(inv.SecretHash), []byte(secret)) != nil {
		return user.Invite{}, ErrInviteInvalid
	}
	now := u.now()
	if inv.UsedAt != nil {
		return user.Invite{}, ErrInviteUsed
	}
	if !inv.Usable(now) {
		return user.Invite{}, ErrInviteExpired
	}

	if err := u.invites.MarkUsed(ctx, inv.ID, now); err != nil {
		if errors.Is(err, repository.ErrInviteUsed) {
			return user.Invite{}, ErrInviteUsed
		}
		return user.Invite{}, internal("invite.mark_used", err)
	}
	used := now
	inv.UsedAt = &used

	if in.UserID.Valid {
		if _, err := u.profiles.Upsert(ctx, user.Profile{
			UserID:   in.UserID.UUID,
			Email:    inv.Email,
			FullName: strings.TrimSpace(in.FullName),
			Role:     inv.Role,
		}); err != nil {
			if isUniqueViolation(err) {
				return user.Invite{}, ErrEmailTaken
			}
			return user.Invite{}, internal("invite.profile", err)
		}
	}
	return inv, nil
}

func newSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func splitCode(code string) (uuid.UUID, string, bool) {
	idPart, secret, ok := strings.Cut(strings.TrimSpace(code), ".")
	if !ok || secret == "" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, secret, true
}
