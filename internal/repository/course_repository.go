package repository

import (
	"context"
	"errors"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/course"
	"learnfinity/internal/domain/gap"

	"github.com/google/uuid"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (course.Course, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]course.Course, error)
	Create(ctx context.Context, c course.Course) (course.Course, error)
	Enroll(ctx context.Context, e course.Enrollment) (course.Enrollment, error)
	ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]course.Enrollment, error)
	ListEnrolledEmployeeIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)
}

type PostgresCourseRepository struct {
	db database.DB
}

func NewPostgresCourseRepository(db database.DB) *PostgresCourseRepository {
	return &PostgresCourseRepository{db: db}
}

const courseColumns = `id, title, description, COALESCE(level, ''), created_at, updated_at`

func scanCourse(row database.Row) (course.Course, error) {
	var c course.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Level, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PostgresCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (course.Course, error) {
	c, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return course.Course{}, ErrCourseNotFound
		}
		return course.Course{}, err
	}
	return c, nil
}

func (r *PostgresCourseRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresCourseRepository) List(ctx context.Context, limit, offset int) ([]course.Course, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]course.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresCourseRepository) Create(ctx context.Context, c course.Course) (course.Course, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return scanCourse(r.db.QueryRow(ctx,
		`INSERT INTO courses (id, title, description, level)
		 VALUES ($1, $2, $3, NULLIF($4, ''))
		 RETURNING `+courseColumns,
		c.ID, c.Title, c.Description, c.Level,
	))
}

// Enroll is idempotent; enrolling again refreshes the RAG status.
func (r *PostgresCourseRepository) Enroll(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	var rag *string
	if e.RAGStatus != "" {
		s := string(e.RAGStatus)
		rag = &s
	}

	var out course.Enrollment
	var status *string
	err := r.db.QueryRow(ctx,
		`INSERT INTO enrollments (course_id, employee_id, rag_status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (course_id, employee_id) DO UPDATE
		 SET rag_status = COALESCE(EXCLUDED.rag_status, enrollments.rag_status)
		 RETURNING course_id, employee_id, rag_status, enrolled_at`,
		e.CourseID, e.EmployeeID, rag,
	).Scan(&out.CourseID, &out.EmployeeID, &status, &out.EnrolledAt)
	if err != nil {
		return course.Enrollment{}, err
	}
	if status != nil {
		out.RAGStatus = gap.RAGStatus(*status)
	}
	return out, nil
}

func (r *PostgresCourseRepository) ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]course.Enrollment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT course_id, employee_id, rag_status, enrolled_at
		 FROM enrollments
		 WHERE course_id = $1
		 ORDER BY enrolled_at ASC, employee_id ASC`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]course.Enrollment, 0)
	for rows.Next() {
		var e course.Enrollment
		var status *string
		if err := rows.Scan(&e.CourseID, &e.EmployeeID, &status, &e.EnrolledAt); err != nil {
			return nil, err
		}
		if status != nil {
			e.RAGStatus = gap.RAGStatus(*status)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresCourseRepository) ListEnrolledEmployeeIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT employee_id FROM enrollments WHERE course_id = $1 ORDER BY enrolled_at ASC, employee_id ASC`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
