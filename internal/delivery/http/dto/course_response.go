package dto

import (
	"encoding/json"
	"time"

	"learnfinity/internal/domain/course"
	"learnfinity/internal/domain/gap"

	"github.com/google/uuid"
)

type CourseResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewCourseResponse(c course.Course) CourseResponse {
	return CourseResponse{ID: c.ID, Title: c.Title, Description: c.Description, Level: c.Level, CreatedAt: c.CreatedAt}
}

type EnrollmentResponse struct {
	CourseID   uuid.UUID     `json:"course_id"`
	EmployeeID uuid.UUID     `json:"employee_id"`
	RAGStatus  gap.RAGStatus `json:"rag_status,omitempty"`
	EnrolledAt time.Time     `json:"enrolled_at"`
	Job        *JobResponse  `json:"job,omitempty"`
}

type ContentResponse struct {
	ID               uuid.UUID            `json:"id"`
	CourseID         uuid.UUID            `json:"course_id"`
	EmployeeID       uuid.UUID            `json:"employee_id"`
	Status           course.ContentStatus `json:"status"`
	Content          json.RawMessage      `json:"content,omitempty"`
	Error            string               `json:"error,omitempty"`
	Model            string               `json:"model,omitempty"`
	PromptTokens     int                  `json:"prompt_tokens"`
	CompletionTokens int                  `json:"completion_tokens"`
	GeneratedAt      *time.Time           `json:"generated_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// NewContentResponse leaves out the raw model output; it is kept for
// operators, not learners.
func NewContentResponse(g course.GeneratedContent) ContentResponse {
	return ContentResponse{
		ID:               g.ID,
		CourseID:         g.CourseID,
		EmployeeID:       g.EmployeeID,
		Status:           g.Status,
		Content:          g.Content,
		Error:            g.Error,
		Model:            g.Model,
		PromptTokens:     g.PromptTokens,
		CompletionTokens: g.CompletionTokens,
		GeneratedAt:      g.GeneratedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

type JobResponse struct {
	ID         uuid.UUID        `json:"id"`
	CourseID   uuid.UUID        `json:"course_id"`
	EmployeeID uuid.UUID        `json:"employee_id"`
	Status     course.JobStatus `json:"status"`
	Attempts   int              `json:"attempts"`
	LastError  string           `json:"last_error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewJobResponse(j course.PersonalizationJob) JobResponse {
	return JobResponse{
		ID:         j.ID,
		CourseID:   j.CourseID,
		EmployeeID: j.EmployeeID,
		Status:     j.Status,
		Attempts:   j.Attempts,
		LastError:  j.LastError,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

type LearningPathResponse struct {
	ID               uuid.UUID         `json:"id"`
	EmployeeID       uuid.UUID         `json:"employee_id"`
	Summary          string            `json:"summary"`
	Steps            []course.PathStep `json:"steps"`
	TotalHours       float64           `json:"total_hours"`
	Model            string            `json:"model,omitempty"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// NewLearningPathResponse leaves out the raw model output.
func NewLearningPathResponse(p course.LearningPath) LearningPathResponse {
	steps := p.Path.Steps
	if steps == nil {
		steps = []course.PathStep{}
	}
	return LearningPathResponse{
		ID:               p.ID,
		EmployeeID:       p.EmployeeID,
		Summary:          p.Path.Summary,
		Steps:            steps,
		TotalHours:       p.Path.TotalHours(),
		Model:            p.Model,
		PromptTokens:     p.PromptTokens,
		CompletionTokens: p.CompletionTokens,
		GeneratedAt:      p.GeneratedAt,
	}
}
