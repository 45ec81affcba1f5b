package repository

import (
	"context"
	"errors"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/employee"

	"github.com/google/uuid"
)

var (
	ErrSkillRecordNotFound  = errors.New("skill record not found")
	ErrSkillRecordForbidden = errors.New("forbidden")
)

type EmployeeSkillRepository interface {
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]employee.SkillRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (employee.SkillRecord, error)
	FindMapped(ctx context.Context, employeeID, skillID uuid.UUID) (employee.SkillRecord, error)
	Create(ctx context.Context, rec employee.SkillRecord) (employee.SkillRecord, error)
	Update(ctx context.Context, rec employee.SkillRecord) (employee.SkillRecord, error)
	AssignSkill(ctx context.Context, id, skillID uuid.UUID) (employee.SkillRecord, error)
	Delete(ctx context.Context, id, employeeID uuid.UUID) error
	ListUnmapped(ctx context.Context, limit, offset int) ([]employee.SkillRecord, error)
}

type PostgresEmployeeSkillRepository struct {
	db database.DB
}

func NewPostgresEmployeeSkillRepository(db database.DB) *PostgresEmployeeSkillRepository {
	return &PostgresEmployeeSkillRepository{db: db}
}

const skillRecordSelect = `SELECT es.id, es.employee_id, es.taxonomy_skill_id, COALESCE(ts.name, ''), es.raw_text,
	es.proficiency, es.verified, es.source, es.created_at, es.updated_at
	FROM employee_skills es
	LEFT JOIN taxonomy_skills ts ON ts.id = es.taxonomy_skill_id`

func scanSkillRecord(row database.Row) (employee.SkillRecord, error) {
	var rec employee.SkillRecord
	var source string
	if err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.TaxonomySkillID, &rec.SkillName, &rec.RawText,
		&rec.Proficiency, &rec.Verified, &source, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return employee.SkillRecord{}, err
	}
	rec.Source = employee.Source(source)
	return rec, nil
}

func collectSkillRecords(rows database.Rows) ([]employee.SkillRecord, error) {
	defer rows.Close()

	out := make([]employee.SkillRecord, 0)
	for rows.Next() {
		rec, err := scanSkillRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresEmployeeSkillRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]employee.SkillRecord, error) {
	rows, err := r.db.Query(ctx,
		skillRecordSelect+` WHERE es.employee_id = $1 ORDER BY lower(COALESCE(ts.name, es.raw_text)) ASC, es.created_at ASC`,
		employeeID,
	)
	if err != nil {
		return nil, err
	}
	return collectSkillRecords(rows)
}

func (r *PostgresEmployeeSkillRepository) FindByID(ctx context.Context, id uuid.UUID) (employee.SkillRecord, error) {
	rec, err := scanSkillRecord(r.db.QueryRow(ctx, skillRecordSelect+` WHERE es.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return employee.SkillRecord{}, ErrSkillRecordNotFound
		}
		return employee.SkillRecord{}, err
	}
	return rec, nil
}

// FindMapped returns the strongest record the employee holds for a taxonomy skill.
func (r *PostgresEmployeeSkillRepository) FindMapped(ctx context.Context, employeeID, skillID uuid.UUID) (employee.SkillRecord, error) {
	rec, err := scanSkillRecord(r.db.QueryRow(ctx,
		skillRecordSelect+` WHERE es.employee_id = $1 AND es.taxonomy_skill_id = $2
		 ORDER BY es.proficiency DESC, es.created_at ASC LIMIT 1`,
		employeeID, skillID,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return employee.SkillRecord{}, ErrSkillRecordNotFound
		}
		return employee.SkillRecord{}, err
	}
	return rec, nil
}

func (r *PostgresEmployeeSkillRepository) Create(ctx context.Context, rec employee.SkillRecord) (employee.SkillRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO employee_skills (id, employee_id, taxonomy_skill_id, raw_text, proficiency, verified, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.EmployeeID, rec.TaxonomySkillID, rec.RawText, rec.Proficiency, rec.Verified, string(rec.Source),
	)
	if err != nil {
		return employee.SkillRecord{}, err
	}
	return r.FindByID(ctx, rec.ID)
}

func (r *PostgresEmployeeSkillRepository) Update(ctx context.Context, rec employee.SkillRecord) (employee.SkillRecord, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE employee_skills
		 SET proficiency = $1, verified = $2, source = $3, updated_at = now()
		 WHERE id = $4 AND employee_id = $5`,
		rec.Proficiency, rec.Verified, string(rec.Source), rec.ID, rec.EmployeeID,
	)
	if err != nil {
		return employee.SkillRecord{}, err
	}
	if n == 0 {
		return employee.SkillRecord{}, ErrSkillRecordNotFound
	}
	return r.FindByID(ctx, rec.ID)
}

// AssignSkill maps a record onto a taxonomy skill. When the employee already
// holds a record for that skill, the two are merged into the existing one and
// the given record is removed along with its log references moved over. The
// surviving record is returned.
func (r *PostgresEmployeeSkillRepository) AssignSkill(ctx context.Context, id, skillID uuid.UUID) (employee.SkillRecord, error) {
	keep := id
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		var incoming employee.SkillRecord
		var source string
		if err := tx.QueryRow(ctx,
			`SELECT employee_id, proficiency, verified, source FROM employee_skills WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&incoming.EmployeeID, &incoming.Proficiency, &incoming.Verified, &source); err != nil {
			if database.IsNoRows(err) {
				return ErrSkillRecordNotFound
			}
			return err
		}
		incoming.Source = employee.Source(source)

		var existing employee.SkillRecord
		err := tx.QueryRow(ctx,
			`SELECT id, proficiency, verified, source FROM employee_skills
			 WHERE employee_id = $1 AND taxonomy_skill_id = $2 AND id <> $3
			 ORDER BY proficiency DESC, created_at ASC
			 LIMIT 1
			 FOR UPDATE`,
			incoming.EmployeeID, skillID, id,
		).Scan(&existing.ID, &existing.Proficiency, &existing.Verified, &source)
		if database.IsNoRows(err) {
			_, err = tx.Exec(ctx,
				`UPDATE employee_skills SET taxonomy_skill_id = $1, updated_at = now() WHERE id = $2`,
				skillID, id,
			)
			return err
		}
		if err != nil {
			return err
		}
		existing.Source = employee.Source(source)
		keep = existing.ID

		merged, changed := existing.Absorb(incoming)
		if changed {
			if _, err := tx.Exec(ctx,
				`UPDATE employee_skills SET proficiency = $1, verified = $2, source = $3, updated_at = now() WHERE id = $4`,
				merged.Proficiency, merged.Verified, string(merged.Source), keep,
			); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx,
			`UPDATE normalization_logs SET employee_skill_id = $1 WHERE employee_skill_id = $2`,
			keep, id,
		); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM employee_skills WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return employee.SkillRecord{}, err
	}
	return r.FindByID(ctx, keep)
}

func (r *PostgresEmployeeSkillRepository) Delete(ctx context.Context, id, employeeID uuid.UUID) error {
	var owner uuid.UUID
	if err := r.db.QueryRow(ctx, `SELECT employee_id FROM employee_skills WHERE id = $1`, id).Scan(&owner); err != nil {
		if database.IsNoRows(err) {
			return ErrSkillRecordNotFound
		}
		return err
	}
	if owner != employeeID {
		return ErrSkillRecordForbidden
	}

	_, err := r.db.Exec(ctx, `DELETE FROM employee_skills WHERE id = $1`, id)
	return err
}

func (r *PostgresEmployeeSkillRepository) ListUnmapped(ctx context.Context, limit, offset int) ([]employee.SkillRecord, error) {
	rows, err := r.db.Query(ctx,
		skillRecordSelect+` WHERE es.taxonomy_skill_id IS NULL ORDER BY es.created_at ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectSkillRecords(rows)
}
