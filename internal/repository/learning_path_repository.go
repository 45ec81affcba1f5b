package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/course"

	"github.com/google/uuid"
)

var ErrLearningPathNotFound = errors.New("learning path not found")

type LearningPathRepository interface {
	FindByEmployee(ctx context.Context, employeeID uuid.UUID) (course.LearningPath, error)
	// Save replaces the employee's path.
	Save(ctx context.Context, p course.LearningPath) (course.LearningPath, error)
}

type PostgresLearningPathRepository struct {
	db database.DB
}

func NewPostgresLearningPathRepository(db database.DB) *PostgresLearningPathRepository {
	return &PostgresLearningPathRepository{db: db}
}

const learningPathColumns = `id, employee_id, path, COALESCE(raw_response, ''), COALESCE(model, ''),
	prompt_tokens, completion_tokens, generated_at, created_at, updated_at`

func scanLearningPath(row database.Row) (course.LearningPath, error) {
	var p course.LearningPath
	var body []byte
	if err := row.Scan(
		&p.ID, &p.EmployeeID, &body, &p.RawResponse, &p.Model,
		&p.PromptTokens, &p.CompletionTokens, &p.GeneratedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return course.LearningPath{}, err
	}
	if err := json.Unmarshal(body, &p.Path); err != nil {
		return course.LearningPath{}, fmt.Errorf("decode learning path %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *PostgresLearningPathRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID) (course.LearningPath, error) {
	p, err := scanLearningPath(r.db.QueryRow(ctx,
		`SELECT `+learningPathColumns+` FROM learning_paths WHERE employee_id = $1`,
		employeeID,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return course.LearningPath{}, ErrLearningPathNotFound
		}
		return course.LearningPath{}, err
	}
	return p, nil
}

func (r *PostgresLearningPathRepository) Save(ctx context.Context, p course.LearningPath) (course.LearningPath, error) {
	body, err := json.Marshal(p.Path)
	if err != nil {
		return course.LearningPath{}, err
	}
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now()
	}
	return scanLearningPath(r.db.QueryRow(ctx,
		`INSERT INTO learning_paths
		   (employee_id, path, raw_response, model, prompt_tokens, completion_tokens, generated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		 ON CONFLICT (employee_id) DO UPDATE
		 SET path = EXCLUDED.path,
		     raw_response = EXCLUDED.raw_response,
		     model = EXCLUDED.model,
		     prompt_tokens = EXCLUDED.prompt_tokens,
		     completion_tokens = EXCLUDED.completion_tokens,
		     generated_at = EXCLUDED.generated_at,
		     updated_at = now()
		 RETURNING `+learningPathColumns,
		p.EmployeeID, body, p.RawResponse, p.Model, p.PromptTokens, p.CompletionTokens, p.GeneratedAt.UTC(),
	))
}
