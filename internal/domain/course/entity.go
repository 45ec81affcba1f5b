package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnfinity/internal/domain/gap"

	"github.com/google/uuid"
)

type Course struct {
	ID          uuid.UUID
	Title       string
	Description string
	Level       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Enrollment struct {
	CourseID   uuid.UUID
	EmployeeID uuid.UUID
	RAGStatus  gap.RAGStatus
	EnrolledAt time.Time
}

type ContentStatus string

const (
	StatusPending    ContentStatus = "pending"
	StatusGenerating ContentStatus = "generating"
	StatusCompleted  ContentStatus = "completed"
	StatusFailed     ContentStatus = "failed"
)

type GeneratedContent struct {
	ID               uuid.UUID
	CourseID         uuid.UUID
	EmployeeID       uuid.UUID
	Status           ContentStatus
	Content          json.RawMessage
	RawResponse      string
	Error            string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type PersonalizationJob struct {
	ID         uuid.UUID
	CourseID   uuid.UUID
	EmployeeID uuid.UUID
	Gaps       []gap.Gap
	Status     JobStatus
	Attempts   int
	LastError  string
	LockedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PersonalizedContent is the body the model must return for a course.
type PersonalizedContent struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Modules []Module `json:"modules"`
}

type Module struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Objectives       []string `json:"objectives"`
	FocusSkills      []string `json:"focus_skills"`
	Lessons          []Lesson `json:"lessons"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}

type Lesson struct {
	Title           string `json:"title"`
	Type            string `json:"type"`
	Content         string `json:"content"`
	DurationMinutes int    `json:"duration_minutes"`
}

var ErrInvalidContent = errors.New("invalid personalized content")

func (p PersonalizedContent) Validate() error {
	if len(p.Modules) == 0 {
		return fmt.Errorf("%w: no modules", ErrInvalidContent)
	}
	for i, m := range p.Modules {
		if strings.TrimSpace(m.Title) == "" {
			return fmt.Errorf("%w: module %d has no title", ErrInvalidContent, i+1)
		}
	}
	return nil
}
