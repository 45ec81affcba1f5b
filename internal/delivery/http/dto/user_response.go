package dto

import (
	"time"

	"learnfinity/internal/domain/user"

	"github.com/google/uuid"
)

type ProfileResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewProfileResponse(p user.Profile) ProfileResponse {
	return ProfileResponse{UserID: p.UserID, Email: p.Email, FullName: p.FullName, Role: p.Role, CreatedAt: p.CreatedAt}
}

type InviteResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      user.Role  `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	// Code is only present in the response that created the invite.
	Code string `json:"code,omitempty"`
}

func NewInviteResponse(inv user.Invite, code string) InviteResponse {
	return InviteResponse{ID: inv.ID, Email: inv.Email, Role: inv.Role, ExpiresAt: inv.ExpiresAt, UsedAt: inv.UsedAt, Code: code}
}
