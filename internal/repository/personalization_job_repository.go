package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/course"
	"learnfinity/internal/domain/gap"

	"github.com/google/uuid"
)

var ErrJobNotFound = errors.New("personalization job not found")

// ClaimPolicy decides which jobs a worker may pick up.
type ClaimPolicy struct {
	MaxAttempts int
	RetryDelay  time.Duration
	StaleAfter  time.Duration
}

type PersonalizationJobRepository interface {
	// Enqueue returns the active job for the pair when one exists, otherwise
	// it creates a queued job. created reports which happened.
	Enqueue(ctx context.Context, courseID, employeeID uuid.UUID, gaps []gap.Gap) (job course.PersonalizationJob, created bool, err error)
	ClaimNext(ctx context.Context, policy ClaimPolicy) (*course.PersonalizationJob, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	FindByID(ctx context.Context, id uuid.UUID) (course.PersonalizationJob, error)
	CountByStatus(ctx context.Context) (map[course.JobStatus]int, error)
}

type PostgresPersonalizationJobRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresPersonalizationJobRepository(db database.DB) *PostgresPersonalizationJobRepository {
	return &PostgresPersonalizationJobRepository{db: db, now: time.Now}
}

const jobColumns = `id, course_id, employee_id, gaps, status, attempts, COALESCE(last_error, ''), locked_at, created_at, updated_at`

func scanJob(row database.Row) (course.PersonalizationJob, error) {
	var j course.PersonalizationJob
	var status string
	var gaps []byte
	if err := row.Scan(
		&j.ID, &j.CourseID, &j.EmployeeID, &gaps, &status, &j.Attempts, &j.LastError, &j.LockedAt, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return course.PersonalizationJob{}, err
	}
	j.Status = course.JobStatus(status)
	if len(gaps) > 0 {
		if err := json.Unmarshal(gaps, &j.Gaps); err != nil {
			return course.PersonalizationJob{}, err
		}
	}
	return j, nil
}

func (r *PostgresPersonalizationJobRepository) Enqueue(ctx context.Context, courseID, employeeID uuid.UUID, gaps []gap.Gap) (course.PersonalizationJob, bool, error) {
	var payload []byte
	if gaps != nil {
		b, err := json.Marshal(gaps)
		if err != nil {
			return course.PersonalizationJob{}, false, err
		}
		payload = b
	}

	job, err := scanJob(r.db.QueryRow(ctx,
		`INSERT INTO personalization_jobs (course_id, employee_id, gaps, status)
		 VALUES ($1, $2, $3, 'queued')
		 ON CONFLICT (course_id, employee_id) WHERE status IN ('queued', 'running') DO NOTHING
		 RETURNING `+jobColumns,
		courseID, employeeID, payload,
	))
	if err == nil {
		return job, true, nil
	}
	if !database.IsNoRows(err) {
		return course.PersonalizationJob{}, false, err
	}

	job, err = scanJob(r.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM personalization_jobs
		 WHERE course_id = $1 AND employee_id = $2 AND status IN ('queued', 'running')
		 ORDER BY created_at DESC LIMIT 1`,
		courseID, employeeID,
	))
	if err != nil {
		if database.IsNoRows(err) {
			// The active job finished between the two statements.
			return r.Enqueue(ctx, courseID, employeeID, gaps)
		}
		return course.PersonalizationJob{}, false, err
	}
	return job, false, nil
}

// ClaimNext picks the oldest runnable job and marks it running. Runnable
// means queued, failed with attempts left once the retry delay has passed,
// or running with a lock older than the stale threshold. A failed job is not
// retried while a newer job for the same pair exists. It returns nil when
// nothing is runnable.
func (r *PostgresPersonalizationJobRepository) ClaimNext(ctx context.Context, policy ClaimPolicy) (*course.PersonalizationJob, error) {
	now := r.now().UTC()
	retryCutoff := now.Add(-policy.RetryDelay)
	staleCutoff := now.Add(-policy.StaleAfter)

	job, err := scanJob(r.db.QueryRow(ctx,
		`WITH next AS (
		   SELECT j.id FROM personalization_jobs j
		   WHERE j.status = 'queued'
		      OR (
		        j.status = 'failed'
		        AND j.attempts < $1
		        AND j.updated_at < $2
		        AND NOT EXISTS (
		          SELECT 1 FROM personalization_jobs o
		          WHERE o.course_id = j.course_id AND o.employee_id = j.employee_id AND o.id <> j.id
		            AND (o.status IN ('queued', 'running') OR o.created_at > j.created_at)
		        )
		      )
		      OR (j.status = 'running' AND j.locked_at IS NOT NULL AND j.locked_at < $3)
		   ORDER BY j.created_at ASC
		   LIMIT 1
		   FOR UPDATE SKIP LOCKED
		 )
		 UPDATE personalization_jobs p
		 SET status = 'running', attempts = p.attempts + 1, locked_at = $4, updated_at = $4
		 FROM next
		 WHERE p.id = next.id
		 RETURNING p.id, p.course_id, p.employee_id, p.gaps, p.status, p.attempts,
		           COALESCE(p.last_error, ''), p.locked_at, p.created_at, p.updated_at`,
		policy.MaxAttempts, retryCutoff, staleCutoff, now,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *PostgresPersonalizationJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx,
		`UPDATE personalization_jobs
		 SET status = 'completed', last_error = NULL, locked_at = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresPersonalizationJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	n, err := r.db.Exec(ctx,
		`UPDATE personalization_jobs
		 SET status = 'failed', last_error = $2, locked_at = NULL, updated_at = now()
		 WHERE id = $1`,
		id, reason,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresPersonalizationJobRepository) FindByID(ctx context.Context, id uuid.UUID) (course.PersonalizationJob, error) {
	job, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM personalization_jobs WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return course.PersonalizationJob{}, ErrJobNotFound
		}
		return course.PersonalizationJob{}, err
	}
	return job, nil
}

func (r *PostgresPersonalizationJobRepository) CountByStatus(ctx context.Context) (map[course.JobStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM personalization_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[course.JobStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[course.JobStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
