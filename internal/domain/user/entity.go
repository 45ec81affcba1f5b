package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleLearner    Role = "learner"
	RoleHR         Role = "hr"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleHR, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func (r Role) rank() int {
	switch r {
	case RoleLearner:
		return 1
	case RoleHR:
		return 2
	case RoleAdmin:
		return 3
	case RoleSuperAdmin:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether r grants everything min does.
func (r Role) AtLeast(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

type Profile struct {
	UserID    uuid.UUID
	Email     string
	FullName  string
	Role      Role
	CreatedAt time.Time
}

type Invite struct {
	ID         uuid.UUID
	Email      string
	Role       Role
	SecretHash string
	CreatedBy  uuid.UUID
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}

func (i Invite) Usable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}
