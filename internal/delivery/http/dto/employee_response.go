package dto

import (
	"encoding/json"
	"time"

	"learnfinity/internal/domain/employee"

	"github.com/google/uuid"
)

type EmployeeResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          *uuid.UUID      `json:"user_id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	JobTitle        string          `json:"job_title"`
	Department      string          `json:"department"`
	ExperienceLevel string          `json:"experience_level"`
	PositionID      *uuid.UUID      `json:"position_id"`
	HasProfile      bool            `json:"has_profile"`
	CVData          json.RawMessage `json:"cv_data,omitempty"`
	CVProcessedAt   *time.Time      `json:"cv_processed_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

func NewEmployeeResponse(e employee.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:              e.ID,
		UserID:          nullUUID(e.UserID),
		Name:            e.Name,
		Email:           e.Email,
		JobTitle:        e.JobTitle,
		Department:      e.Department,
		ExperienceLevel: e.ExperienceLevel,
		PositionID:      nullUUID(e.PositionID),
		HasProfile:      e.HasProfile(),
		CVData:          e.CVData,
		CVProcessedAt:   e.CVProcessedAt,
		CreatedAt:       e.CreatedAt,
	}
}

type SkillRecordResponse struct {
	ID          uuid.UUID  `json:"id"`
	EmployeeID  uuid.UUID  `json:"employee_id"`
	SkillID     *uuid.UUID `json:"skill_id"`
	SkillName   string     `json:"skill_name,omitempty"`
	RawText     string     `json:"raw_text"`
	Proficiency int        `json:"proficiency"`
	Verified    bool       `json:"verified"`
	Source      string     `json:"source"`
	Mapped      bool       `json:"mapped"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewSkillRecordResponse(r employee.SkillRecord) SkillRecordResponse {
	return SkillRecordResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		SkillID:     nullUUID(r.TaxonomySkillID),
		SkillName:   r.SkillName,
		RawText:     r.RawText,
		Proficiency: r.Proficiency,
		Verified:    r.Verified,
		Source:      string(r.Source),
		Mapped:      r.Mapped(),
		UpdatedAt:   r.UpdatedAt,
	}
}

func NewSkillRecordResponses(rs []employee.SkillRecord) []SkillRecordResponse {
	out := make([]SkillRecordResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewSkillRecordResponse(r))
	}
	return out
}

func nullUUID(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}
