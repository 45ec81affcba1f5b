package repository

import (
	"context"
	"errors"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/user"

	"github.com/google/uuid"
)

var (
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteUsed     = errors.New("invite already used")
)

type InviteRepository interface {
	Create(ctx context.Context, inv user.Invite) (user.Invite, error)
	FindByID(ctx context.Context, id uuid.UUID) (user.Invite, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type PostgresInviteRepository struct {
	db database.DB
}

func NewPostgresInviteRepository(db database.DB) *PostgresInviteRepository {
	return &PostgresInviteRepository{db: db}
}

const inviteColumns = `id, email, role, secret_hash, created_by, expires_at, used_at, created_at`

func scanInvite(row database.Row) (user.Invite, error) {
	var inv user.Invite
	var role string
	if err := row.Scan(&inv.ID, &inv.Email, &role, &inv.SecretHash, &inv.CreatedBy, &inv.ExpiresAt, &inv.UsedAt, &inv.CreatedAt); err != nil {
		return user.Invite{}, err
	}
	inv.Role = user.Role(role)
	return inv, nil
}

func (r *PostgresInviteRepository) Create(ctx context.Context, inv user.Invite) (user.Invite, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	return scanInvite(r.db.QueryRow(ctx,
		`INSERT INTO invites (id, email, role, secret_hash, created_by, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+inviteColumns,
		inv.ID, inv.Email, string(inv.Role), inv.SecretHash, inv.CreatedBy, inv.ExpiresAt.UTC(),
	))
}

func (r *PostgresInviteRepository) FindByID(ctx context.Context, id uuid.UUID) (user.Invite, error) {
	inv, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return user.Invite{}, ErrInviteNotFound
		}
		return user.Invite{}, err
	}
	return inv, nil
}

// MarkUsed consumes the invite once; a second call reports ErrInviteUsed.
func (r *PostgresInviteRepository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, err := r.db.Exec(ctx, `UPDATE invites SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at.UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInviteUsed
	}
	return nil
}
