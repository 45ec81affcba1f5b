package repository

import (
	"context"
	"errors"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/position"

	"github.com/google/uuid"
)

var ErrPositionNotFound = errors.New("position not found")

type PositionRepository interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (position.Position, error)
	List(ctx context.Context, limit, offset int) ([]position.Position, error)
	Create(ctx context.Context, p position.Position) (position.Position, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListRequirements(ctx context.Context, positionID uuid.UUID) ([]position.Requirement, error)
	ReplaceRequirements(ctx context.Context, positionID uuid.UUID, reqs []position.Requirement) error
}

type PostgresPositionRepository struct {
	db database.DB
}

func NewPostgresPositionRepository(db database.DB) *PostgresPositionRepository {
	return &PostgresPositionRepository{db: db}
}

const positionColumns = `id, title, COALESCE(department, ''), COALESCE(description, ''), created_at, updated_at`

func scanPosition(row database.Row) (position.Position, error) {
	var p position.Position
	err := row.Scan(&p.ID, &p.Title, &p.Department, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresPositionRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM positions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresPositionRepository) FindByID(ctx context.Context, id uuid.UUID) (position.Position, error) {
	p, err := scanPosition(r.db.QueryRow(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return position.Position{}, ErrPositionNotFound
		}
		return position.Position{}, err
	}
	return p, nil
}

func (r *PostgresPositionRepository) List(ctx context.Context, limit, offset int) ([]position.Position, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+positionColumns+` FROM positions ORDER BY lower(title) ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]position.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPositionRepository) Create(ctx context.Context, p position.Position) (position.Position, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return scanPosition(r.db.QueryRow(ctx,
		`INSERT INTO positions (id, title, department, description)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		 RETURNING `+positionColumns,
		p.ID, p.Title, p.Department, p.Description,
	))
}

// Delete retires a position; its requirements go with it.
func (r *PostgresPositionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (r *PostgresPositionRepository) ListRequirements(ctx context.Context, positionID uuid.UUID) ([]position.Requirement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT psr.position_id, psr.taxonomy_skill_id, ts.name, psr.importance, psr.required_proficiency
		 FROM position_skill_requirements psr
		 JOIN taxonomy_skills ts ON ts.id = psr.taxonomy_skill_id
		 WHERE psr.position_id = $1
		 ORDER BY psr.importance DESC, lower(ts.name) ASC`,
		positionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]position.Requirement, 0)
	for rows.Next() {
		var req position.Requirement
		if err := rows.Scan(&req.PositionID, &req.SkillID, &req.SkillName, &req.Importance, &req.RequiredProficiency); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceRequirements makes reqs the complete requirement set of the position.
func (r *PostgresPositionRepository) ReplaceRequirements(ctx context.Context, positionID uuid.UUID, reqs []position.Requirement) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM positions WHERE id = $1 FOR UPDATE`, positionID).Scan(&locked); err != nil {
			if database.IsNoRows(err) {
				return ErrPositionNotFound
			}
			return err
		}

		keep := make([]string, 0, len(reqs))
		for _, req := range reqs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO position_skill_requirements (position_id, taxonomy_skill_id, importance, required_proficiency)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (position_id, taxonomy_skill_id) DO UPDATE
				 SET importance = EXCLUDED.importance,
				     required_proficiency = EXCLUDED.required_proficiency,
				     updated_at = now()`,
				positionID, req.SkillID, req.Importance, req.RequiredProficiency,
			); err != nil {
				return err
			}
			keep = append(keep, req.SkillID.String())
		}

		_, err := tx.Exec(ctx,
			`DELETE FROM position_skill_requirements
			 WHERE position_id = $1 AND NOT (taxonomy_skill_id = ANY($2::uuid[]))`,
			positionID, keep,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE positions SET updated_at = now() WHERE id = $1`, positionID)
		return err
	})
}
