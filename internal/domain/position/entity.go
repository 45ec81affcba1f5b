package position

import (
	"time"

	"github.com/google/uuid"
)

type Position struct {
	ID          uuid.UUID
	Title       string
	Department  string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Requirement struct {
	PositionID          uuid.UUID
	SkillID             uuid.UUID
	SkillName           string
	Importance          int
	RequiredProficiency int
}

func ValidLevel(v int) bool {
	return v >= 1 && v <= 5
}
