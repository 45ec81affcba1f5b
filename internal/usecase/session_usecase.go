package usecase

import (
	"context"
	"errors"
	"time"

	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/jwt"
	"learnfinity/internal/pkg/logger"
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type SessionUsecase interface {
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}

// Sessions rotates token pairs. The access token always carries the role
// stored in user_profiles, never the one from the previous token.
type Sessions struct {
	tokens jwt.Service
	users  UserUsecase
	log    *logger.Logger
}

func NewSessionUsecase(tokens jwt.Service, users UserUsecase, log *logger.Logger) *Sessions {
	if log == nil {
		log = logger.Nop()
	}
	return &Sessions{tokens: tokens, users: users, log: log}
}

func (s *Sessions) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, ErrInvalidInput
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return Tokens{}, ErrUnauthorized
	}

	email, role := "", user.RoleLearner
	p, err := s.users.Profile(ctx, claims.UserID)
	switch {
	case err == nil:
		email, role = p.Email, p.Role
	case errors.Is(err, ErrUserNotFound):
	default:
		return Tokens{}, err
	}

	access, err := s.tokens.GenerateAccessToken(claims.UserID, email, string(role))
	if err != nil {
		return Tokens{}, internal("session.refresh", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(claims.UserID)
	if err != nil {
		return Tokens{}, internal("session.refresh", err)
	}
	s.log.Debug("session refreshed", "user_id", claims.UserID, "role", role)
	return Tokens{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.tokens.AccessTTL()}, nil
}
