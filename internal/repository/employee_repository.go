package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/employee"

	"github.com/google/uuid"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type EmployeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (employee.Employee, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (employee.Employee, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]employee.Employee, error)
	Create(ctx context.Context, e employee.Employee) (employee.Employee, error)
	SetPosition(ctx context.Context, id uuid.UUID, positionID uuid.NullUUID) error
	SaveCVData(ctx context.Context, id uuid.UUID, data json.RawMessage, processedAt time.Time) error
}

type PostgresEmployeeRepository struct {
	db database.DB
}

func NewPostgresEmployeeRepository(db database.DB) *PostgresEmployeeRepository {
	return &PostgresEmployeeRepository{db: db}
}

const employeeColumns = `id, user_id, name, email, COALESCE(job_title, ''), COALESCE(department, ''),
	COALESCE(experience_level, ''), position_id, cv_data, cv_processed_at, created_at, updated_at`

func scanEmployee(row database.Row) (employee.Employee, error) {
	var e employee.Employee
	var cv []byte
	if err := row.Scan(
		&e.ID, &e.UserID, &e.Name, &e.Email, &e.JobTitle, &e.Department,
		&e.ExperienceLevel, &e.PositionID, &cv, &e.CVProcessedAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return employee.Employee{}, err
	}
	if len(cv) > 0 {
		e.CVData = json.RawMessage(cv)
	}
	return e, nil
}

func (r *PostgresEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return employee.Employee{}, ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *PostgresEmployeeRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (employee.Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, userID))
	if err != nil {
		if database.IsNoRows(err) {
			return employee.Employee{}, ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *PostgresEmployeeRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresEmployeeRepository) List(ctx context.Context, limit, offset int) ([]employee.Employee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY lower(name) ASC, id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]employee.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresEmployeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	created, err := scanEmployee(r.db.QueryRow(ctx,
		`INSERT INTO employees (id, user_id, name, email, job_title, department, experience_level, position_id)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		 RETURNING `+employeeColumns,
		e.ID, e.UserID, e.Name, e.Email, e.JobTitle, e.Department, e.ExperienceLevel, e.PositionID,
	))
	if err != nil {
		return employee.Employee{}, err
	}
	return created, nil
}

func (r *PostgresEmployeeRepository) SetPosition(ctx context.Context, id uuid.UUID, positionID uuid.NullUUID) error {
	n, err := r.db.Exec(ctx,
		`UPDATE employees SET position_id = $1, updated_at = now() WHERE id = $2`,
		positionID, id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *PostgresEmployeeRepository) SaveCVData(ctx context.Context, id uuid.UUID, data json.RawMessage, processedAt time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE employees SET cv_data = $1, cv_processed_at = $2, updated_at = now() WHERE id = $3`,
		[]byte(data), processedAt.UTC(), id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
