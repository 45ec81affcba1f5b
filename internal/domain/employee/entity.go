package employee

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Source string

const (
	SourceCV           Source = "cv"
	SourceAssessment   Source = "assessment"
	SourceSelfReported Source = "self_reported"
	SourceManager      Source = "manager"
)

func (s Source) Valid() bool {
	switch s {
	case SourceCV, SourceAssessment, SourceSelfReported, SourceManager:
		return true
	default:
		return false
	}
}

const (
	MinProficiency = 1
	MaxProficiency = 5
)

func ValidProficiency(v int) bool {
	return v >= MinProficiency && v <= MaxProficiency
}

type Employee struct {
	ID              uuid.UUID
	UserID          uuid.NullUUID
	Name            string
	Email           string
	JobTitle        string
	Department      string
	ExperienceLevel string
	PositionID      uuid.NullUUID
	CVData          json.RawMessage
	CVProcessedAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasProfile reports whether a CV has been processed for the employee.
func (e Employee) HasProfile() bool {
	return len(e.CVData) > 0 && string(e.CVData) != "null"
}

type SkillRecord struct {
	ID              uuid.UUID
	EmployeeID      uuid.UUID
	TaxonomySkillID uuid.NullUUID
	SkillName       string
	RawText         string
	Proficiency     int
	Verified        bool
	Source          Source
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r SkillRecord) Mapped() bool {
	return r.TaxonomySkillID.Valid
}

// Absorb folds another record for the same skill into r. The higher
// proficiency wins together with its source, and verification is never lost.
// The second result reports whether r changed.
func (r SkillRecord) Absorb(o SkillRecord) (SkillRecord, bool) {
	changed := false
	if o.Proficiency > r.Proficiency {
		r.Proficiency = o.Proficiency
		if o.Source != "" {
			r.Source = o.Source
		}
		changed = true
	}
	if o.Verified && !r.Verified {
		r.Verified = true
		changed = true
	}
	return r, changed
}
