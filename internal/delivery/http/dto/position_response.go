package dto

import (
	"time"

	"learnfinity/internal/domain/position"

	"github.com/google/uuid"
)

type PositionResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Department  string    `json:"department"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type RequirementResponse struct {
	SkillID             uuid.UUID `json:"skill_id"`
	SkillName           string    `json:"skill_name"`
	Importance          int       `json:"importance"`
	RequiredProficiency int       `json:"required_proficiency"`
}

type PositionDetailResponse struct {
	PositionResponse
	Requirements []RequirementResponse `json:"requirements"`
}

func NewPositionResponse(p position.Position) PositionResponse {
	return PositionResponse{
		ID:          p.ID,
		Title:       p.Title,
		Department:  p.Department,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func NewRequirementResponses(reqs []position.Requirement) []RequirementResponse {
	out := make([]RequirementResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, RequirementResponse{
			SkillID:             r.SkillID,
			SkillName:           r.SkillName,
			Importance:          r.Importance,
			RequiredProficiency: r.RequiredProficiency,
		})
	}
	return out
}
