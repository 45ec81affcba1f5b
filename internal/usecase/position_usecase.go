package usecase

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/domain/position"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type CreatePositionInput struct {
	Title       string
	Department  string
	Description string
}

type RequirementInput struct {
	SkillID             uuid.UUID
	Importance          int
	RequiredProficiency int
}

type PositionDetail struct {
	Position     position.Position
	Requirements []position.Requirement
}

type PositionUsecase interface {
	List(ctx context.Context, limit, offset int) ([]position.Position, error)
	Get(ctx context.Context, id uuid.UUID) (PositionDetail, error)
	Create(ctx context.Context, in CreatePositionInput) (position.Position, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceRequirements(ctx context.Context, id uuid.UUID, in []RequirementInput) ([]position.Requirement, error)
}

type Positions struct {
	repo     repository.PositionRepository
	taxonomy repository.TaxonomyRepository
}

func NewPositionUsecase(repo repository.PositionRepository, taxonomy repository.TaxonomyRepository) *Positions {
	return &Positions{repo: repo, taxonomy: taxonomy}
}

func (u *Positions) List(ctx context.Context, limit, offset int) ([]position.Position, error) {
	limit, offset, err := clampPage(limit, offset)
	if err != nil {
		return nil, err
	}
	out, err := u.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal("position.list", err)
	}
	return out, nil
}

func (u *Positions) Get(ctx context.Context, id uuid.UUID) (PositionDetail, error) {
	p, err := u.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return PositionDetail{}, ErrPositionNotFound
		}
		return PositionDetail{}, internal("position.get", err)
	}
	reqs, err := u.repo.ListRequirements(ctx, id)
	if err != nil {
		return PositionDetail{}, internal("position.requirements", err)
	}
	return PositionDetail{Position: p, Requirements: reqs}, nil
}

func (u *Positions) Create(ctx context.Context, in CreatePositionInput) (position.Position, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return position.Position{}, ErrInvalidInput
	}
	p, err := u.repo.Create(ctx, position.Position{
		Title:       title,
		Department:  strings.TrimSpace(in.Department),
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return position.Position{}, ErrPositionExists
		}
		return position.Position{}, internal("position.create", err)
	}
	return p, nil
}

func (u *Positions) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return ErrPositionNotFound
		}
		return internal("position.delete", err)
	}
	return nil
}

// ReplaceRequirements makes in the position's whole requirement set. Each
// skill may appear once; levels are 1 to 5.
func (u *Positions) ReplaceRequirements(ctx context.Context, id uuid.UUID, in []RequirementInput) ([]position.Requirement, error) {
	seen := make(map[uuid.UUID]bool, len(in))
	reqs := make([]position.Requirement, 0, len(in))
	for _, r := range in {
		if r.SkillID == uuid.Nil || seen[r.SkillID] {
			return nil, ErrInvalidInput
		}
		if !position.ValidLevel(r.Importance) || !position.ValidLevel(r.RequiredProficiency) {
			return nil, ErrInvalidInput
		}
		seen[r.SkillID] = true

		ok, err := u.taxonomy.SkillExistsByID(ctx, r.SkillID)
		if err != nil {
			return nil, internal("position.requirements", err)
		}
		if !ok {
			return nil, ErrSkillNotFound
		}
		reqs = append(reqs, position.Requirement{
			PositionID:          id,
			SkillID:             r.SkillID,
			Importance:          r.Importance,
			RequiredProficiency: r.RequiredProficiency,
		})
	}

	if err := u.repo.ReplaceRequirements(ctx, id, reqs); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, ErrSkillNotFound
		}
		return nil, internal("position.requirements", err)
	}

	out, err := u.repo.ListRequirements(ctx, id)
	if err != nil {
		return nil, internal("position.requirements", err)
	}
	return out, nil
}
