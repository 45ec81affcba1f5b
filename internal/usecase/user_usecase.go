package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"learnfinity/internal/domain/user"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type ProfilePage struct {
	Items  []user.Profile
	Total  int
	Limit  int
	Offset int
}

type UserUsecase interface {
	Profile(ctx context.Context, userID uuid.UUID) (user.Profile, error)
	SaveProfile(ctx context.Context, p user.Profile) (user.Profile, error)
	ListProfiles(ctx context.Context, limit, offset int) (ProfilePage, error)
}

type Users struct {
	profiles repository.UserProfileRepository
}

func NewUserUsecase(profiles repository.UserProfileRepository) *Users {
	return &Users{profiles: profiles}
}

func (u *Users) Profile(ctx context.Context, userID uuid.UUID) (user.Profile, error) {
	if userID == uuid.Nil {
		return user.Profile{}, ErrInvalidInput
	}
	p, err := u.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return user.Profile{}, ErrUserNotFound
		}
		return user.Profile{}, internal("user.profile", err)
	}
	return p, nil
}

func (u *Users) SaveProfile(ctx context.Context, p user.Profile) (user.Profile, error) {
	p.Email = normalizeEmail(p.Email)
	p.FullName = strings.TrimSpace(p.FullName)
	if p.UserID == uuid.Nil || p.Email == "" || !p.Role.Valid() {
		return user.Profile{}, ErrInvalidInput
	}
	saved, err := u.profiles.Upsert(ctx, p)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Profile{}, ErrEmailTaken
		}
		return user.Profile{}, internal("user.save_profile", err)
	}
	return saved, nil
}

func (u *Users) ListProfiles(ctx context.Context, limit, offset int) (ProfilePage, error) {
	limit, offset, err := clampPage(limit, offset)
	if err != nil {
		return ProfilePage{}, err
	}
	items, total, err := u.profiles.List(ctx, limit, offset)
	if err != nil {
		return ProfilePage{}, internal("user.list_profiles", err)
	}
	return ProfilePage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// normalizeEmail lowercases a syntactically valid address and returns "" for
// anything else.
func normalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return ""
	}
	return s
}
