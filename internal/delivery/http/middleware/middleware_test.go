package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/apperr"
	"learnfinity/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoProfile = errors.New("no profile")

type stubProfiles struct {
	byID map[uuid.UUID]user.Profile
	err  error
}

func (s stubProfiles) Profile(_ context.Context, userID uuid.UUID) (user.Profile, error) {
	if s.err != nil {
		return user.Profile{}, s.err
	}
	p, ok := s.byID[userID]
	if !ok {
		return user.Profile{}, errNoProfile
	}
	return p, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTokens() *jwt.HMACService {
	return jwt.NewHMACService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func newAuthApp(t *testing.T, profiles ProfileLookup, min user.Role) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	auth := NewAuthMiddleware(newTokens(), profiles, errNoProfile, nil)
	app.Get("/private", auth.Middleware(), RequireRole(min), func(c fiber.Ctx) error {
		p, _ := Profile(c)
		return c.JSON(fiber.Map{"role": p.Role})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp, env
}

func bearer(t *testing.T, userID uuid.UUID, claimedRole string) string {
	t.Helper()
	tok, err := newTokens().GenerateAccessToken(userID, "someone@example.com", claimedRole)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuth_MissingOrMalformedHeader(t *testing.T) {
	app := newAuthApp(t, stubProfiles{}, user.RoleLearner)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, _ := doRequest(t, app, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func TestAuth_RoleComesFromStoredProfile(t *testing.T) {
	admin := uuid.New()
	profiles := stubProfiles{byID: map[uuid.UUID]user.Profile{
		admin: {UserID: admin, Email: "a@example.com", Role: user.RoleAdmin},
	}}
	app := newAuthApp(t, profiles, user.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", bearer(t, admin, "learner"))
	resp, _ := doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A token claiming super_admin does not help a user whose profile is missing.
	stranger := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", bearer(t, stranger, "super_admin"))
	resp, env := doRequest(t, app, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", env.Message)
}

func TestAuth_MissingProfileIsLearner(t *testing.T) {
	app := newAuthApp(t, stubProfiles{}, user.RoleLearner)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), "admin"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(user.RoleLearner), body["role"])
}

func TestAuth_ProfileLookupFailureIsServerError(t *testing.T) {
	app := newAuthApp(t, stubProfiles{err: errors.New("db down")}, user.RoleLearner)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), "learner"))
	resp, env := doRequest(t, app, req)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, env.Message, "db down")
}

func TestRequireRole_WithoutAuthIsUnauthorized(t *testing.T) {
	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	app.Get("/x", RequireRole(user.RoleHR), func(c fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorMiddleware_Normalizes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"client app error keeps message", NewAppError(http.StatusConflict, "Already exists", nil, nil), http.StatusConflict, "Already exists"},
		{"upstream app error keeps message", NewAppError(http.StatusBadGateway, "Invalid LLM response", nil, errors.New("raw")), http.StatusBadGateway, "Invalid LLM response"},
		{"internal app error is generic", NewAppError(http.StatusInternalServerError, "pq: syntax error", nil, nil), http.StatusInternalServerError, "internal server error"},
		{"tagged error", apperr.New(apperr.KindDatabase, apperr.CodeDuplicate, "op", nil), http.StatusConflict, "A record with the same details already exists."},
		{"fiber error", fiber.NewError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "nope"},
		{"unknown error", errors.New("secret detail"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(NewErrorMiddleware(nil).Middleware())
			err := tt.err
			app.Get("/", func(fiber.Ctx) error { return err })

			resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus, env.Status)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestErrorMiddleware_RecoversPanic(t *testing.T) {
	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	app.Get("/", func(fiber.Ctx) error { panic("boom") })

	resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", env.Message)
}

func TestAccessLog_SetsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(NewAccessLogMiddleware(nil).Middleware())
	app.Get("/", func(c fiber.Ctx) error { return c.SendString(RequestID(c)) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
}
