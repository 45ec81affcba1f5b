package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/course"

	"github.com/google/uuid"
)

var (
	ErrContentNotFound = errors.New("generated content not found")
	ErrEmptyContent    = errors.New("completed content requires a parsed body")
)

// CompletedContent carries everything persisted with a successful generation.
type CompletedContent struct {
	Content          json.RawMessage
	RawResponse      string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      time.Time
}

type ContentRepository interface {
	MarkPending(ctx context.Context, courseID, employeeID uuid.UUID) error
	MarkGenerating(ctx context.Context, courseID, employeeID uuid.UUID) error
	MarkCompleted(ctx context.Context, courseID, employeeID uuid.UUID, c CompletedContent) (course.GeneratedContent, error)
	MarkFailed(ctx context.Context, courseID, employeeID uuid.UUID, reason, rawResponse string) error
	FindByCourseAndEmployee(ctx context.Context, courseID, employeeID uuid.UUID) (course.GeneratedContent, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]course.GeneratedContent, error)
}

type PostgresContentRepository struct {
	db database.DB
}

func NewPostgresContentRepository(db database.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

const contentColumns = `id, course_id, employee_id, status, content, COALESCE(raw_response, ''),
	COALESCE(error, ''), COALESCE(model, ''), prompt_tokens, completion_tokens, generated_at, created_at, updated_at`

func scanContent(row database.Row) (course.GeneratedContent, error) {
	var g course.GeneratedContent
	var status string
	var body []byte
	if err := row.Scan(
		&g.ID, &g.CourseID, &g.EmployeeID, &status, &body, &g.RawResponse,
		&g.Error, &g.Model, &g.PromptTokens, &g.CompletionTokens, &g.GeneratedAt, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return course.GeneratedContent{}, err
	}
	g.Status = course.ContentStatus(status)
	if len(body) > 0 {
		g.Content = json.RawMessage(body)
	}
	return g, nil
}

// MarkPending records that content is wanted. Rows that are already being
// generated are left alone.
func (r *PostgresContentRepository) MarkPending(ctx context.Context, courseID, employeeID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO generated_course_content (course_id, employee_id, status)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT (course_id, employee_id) DO UPDATE
		 SET status = 'pending', error = NULL, updated_at = now()
		 WHERE generated_course_content.status <> 'generating'`,
		courseID, employeeID,
	)
	return err
}

func (r *PostgresContentRepository) MarkGenerating(ctx context.Context, courseID, employeeID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO generated_course_content (course_id, employee_id, status)
		 VALUES ($1, $2, 'generating')
		 ON CONFLICT (course_id, employee_id) DO UPDATE
		 SET status = 'generating', error = NULL, updated_at = now()`,
		courseID, employeeID,
	)
	return err
}

func (r *PostgresContentRepository) MarkCompleted(ctx context.Context, courseID, employeeID uuid.UUID, c CompletedContent) (course.GeneratedContent, error) {
	if len(c.Content) == 0 || !json.Valid(c.Content) {
		return course.GeneratedContent{}, ErrEmptyContent
	}
	if c.GeneratedAt.IsZero() {
		c.GeneratedAt = time.Now()
	}
	return scanContent(r.db.QueryRow(ctx,
		`INSERT INTO generated_course_content
		   (course_id, employee_id, status, content, raw_response, error, model, prompt_tokens, completion_tokens, generated_at)
		 VALUES ($1, $2, 'completed', $3, NULLIF($4, ''), NULL, NULLIF($5, ''), $6, $7, $8)
		 ON CONFLICT (course_id, employee_id) DO UPDATE
		 SET status = 'completed',
		     content = EXCLUDED.content,
		     raw_response = EXCLUDED.raw_response,
		     error = NULL,
		     model = EXCLUDED.model,
		     prompt_tokens = EXCLUDED.prompt_tokens,
		     completion_tokens = EXCLUDED.completion_tokens,
		     generated_at = EXCLUDED.generated_at,
		     updated_at = now()
		 RETURNING `+contentColumns,
		courseID, employeeID, []byte(c.Content), c.RawResponse, c.Model, c.PromptTokens, c.CompletionTokens, c.GeneratedAt.UTC(),
	))
}

// MarkFailed keeps any previously completed body so readers still see the
// last good content alongside the failure.
func (r *PostgresContentRepository) MarkFailed(ctx context.Context, courseID, employeeID uuid.UUID, reason, rawResponse string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO generated_course_content (course_id, employee_id, status, error, raw_response)
		 VALUES ($1, $2, 'failed', $3, NULLIF($4, ''))
		 ON CONFLICT (course_id, employee_id) DO UPDATE
		 SET status = 'failed',
		     error = EXCLUDED.error,
		     raw_response = COALESCE(EXCLUDED.raw_response, generated_course_content.raw_response),
		     updated_at = now()`,
		courseID, employeeID, reason, rawResponse,
	)
	return err
}

func (r *PostgresContentRepository) FindByCourseAndEmployee(ctx context.Context, courseID, employeeID uuid.UUID) (course.GeneratedContent, error) {
	g, err := scanContent(r.db.QueryRow(ctx,
		`SELECT `+contentColumns+` FROM generated_course_content WHERE course_id = $1 AND employee_id = $2`,
		courseID, employeeID,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return course.GeneratedContent{}, ErrContentNotFound
		}
		return course.GeneratedContent{}, err
	}
	return g, nil
}

func (r *PostgresContentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]course.GeneratedContent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contentColumns+` FROM generated_course_content WHERE course_id = $1 ORDER BY updated_at DESC`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]course.GeneratedContent, 0)
	for rows.Next() {
		g, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
