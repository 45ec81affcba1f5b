package middleware

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/jwt"
	"learnfinity/internal/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey  = "user_id"
	CtxEmailKey   = "email"
	CtxRoleKey    = "role"
	CtxProfileKey = "profile"
)

// ProfileLookup resolves the stored profile of an authenticated user.
type ProfileLookup interface {
	Profile(ctx context.Context, userID uuid.UUID) (user.Profile, error)
}

type AuthMiddleware struct {
	jwt      jwt.Service
	profiles ProfileLookup
	notFound error
	log      *logger.Logger
}

// NewAuthMiddleware validates bearer tokens. The role used for authorization
// always comes from profiles; a user without a profile is a learner. notFound
// is the error profiles returns for a missing profile.
func NewAuthMiddleware(jwtSvc jwt.Service, profiles ProfileLookup, notFound error, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthMiddleware{jwt: jwtSvc, profiles: profiles, notFound: notFound, log: log}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		profile := user.Profile{UserID: claims.UserID, Email: claims.Email, Role: user.RoleLearner}
		if m.profiles != nil {
			p, err := m.profiles.Profile(c.Context(), claims.UserID)
			switch {
			case err == nil:
				profile = p
			case m.notFound != nil && errors.Is(err, m.notFound):
			default:
				m.log.Error("load user profile failed", "user_id", claims.UserID, "error", err)
				return err
			}
		}
		if !profile.Role.Valid() {
			profile.Role = user.RoleLearner
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxEmailKey, claims.Email)
		c.Locals(CtxRoleKey, profile.Role)
		c.Locals(CtxProfileKey, profile)

		return c.Next()
	}
}

// RequireRole rejects requests whose stored role is below min. It must run
// after the auth middleware.
func RequireRole(min user.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		role, ok := c.Locals(CtxRoleKey).(user.Role)
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		if !role.AtLeast(min) {
			return NewAppError(fiber.StatusForbidden, "Forbidden", nil, nil)
		}
		return c.Next()
	}
}

func UserID(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Profile(c fiber.Ctx) (user.Profile, bool) {
	p, ok := c.Locals(CtxProfileKey).(user.Profile)
	return p, ok
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
