package repository

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/user"

	"github.com/google/uuid"
)

var ErrProfileNotFound = errors.New("user profile not found")

type UserProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (user.Profile, error)
	FindByEmail(ctx context.Context, email string) (user.Profile, error)
	Upsert(ctx context.Context, p user.Profile) (user.Profile, error)
	List(ctx context.Context, limit, offset int) ([]user.Profile, int, error)
}

type PostgresUserProfileRepository struct {
	db database.DB
}

func NewPostgresUserProfileRepository(db database.DB) *PostgresUserProfileRepository {
	return &PostgresUserProfileRepository{db: db}
}

const profileColumns = `user_id, email, COALESCE(full_name, ''), role, created_at`

func scanProfile(row database.Row) (user.Profile, error) {
	var p user.Profile
	var role string
	if err := row.Scan(&p.UserID, &p.Email, &p.FullName, &role, &p.CreatedAt); err != nil {
		return user.Profile{}, err
	}
	p.Role = user.Role(role)
	return p, nil
}

func (r *PostgresUserProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (user.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID))
	if err != nil {
		if database.IsNoRows(err) {
			return user.Profile{}, ErrProfileNotFound
		}
		return user.Profile{}, err
	}
	return p, nil
}

func (r *PostgresUserProfileRepository) FindByEmail(ctx context.Context, email string) (user.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE lower(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if err != nil {
		if database.IsNoRows(err) {
			return user.Profile{}, ErrProfileNotFound
		}
		return user.Profile{}, err
	}
	return p, nil
}

// Upsert creates the profile or updates the role and name of an existing one.
func (r *PostgresUserProfileRepository) Upsert(ctx context.Context, p user.Profile) (user.Profile, error) {
	if p.UserID == uuid.Nil {
		p.UserID = uuid.New()
	}
	return scanProfile(r.db.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, email, full_name, role)
		 VALUES ($1, $2, NULLIF($3, ''), $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET role = EXCLUDED.role,
		     full_name = COALESCE(EXCLUDED.full_name, user_profiles.full_name)
		 RETURNING `+profileColumns,
		p.UserID, strings.TrimSpace(p.Email), p.FullName, string(p.Role),
	))
}

func (r *PostgresUserProfileRepository) List(ctx context.Context, limit, offset int) ([]user.Profile, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM user_profiles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM user_profiles ORDER BY created_at DESC, user_id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]user.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
