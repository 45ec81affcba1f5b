package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHMACService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)
	uid := uuid.New()

	tok, err := svc.GenerateAccessToken(uid, "hr@learnfinity.io", "hr")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	c, err := svc.ValidateToken(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.UserID != uid || c.Role != "hr" || c.Email != "hr@learnfinity.io" {
		t.Fatalf("unexpected claims: %+v", c)
	}
}

func TestHMACService_RejectsRefreshAsAccess(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)

	tok, err := svc.GenerateRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.ValidateRefreshToken(tok); err != nil {
		t.Fatalf("refresh validate: %v", err)
	}
}

func TestHMACService_Expired(t *testing.T) {
	svc := NewHMACService("access-secret", "", time.Minute, time.Hour)
	issued := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	tok, err := svc.GenerateAccessToken(uuid.New(), "", "learner")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestHMACService_WrongSecret(t *testing.T) {
	a := NewHMACService("one", "", time.Minute, time.Hour)
	b := NewHMACService("two", "", time.Minute, time.Hour)

	tok, err := a.GenerateAccessToken(uuid.New(), "", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := b.ValidateToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
