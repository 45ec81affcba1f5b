package usecase

import (
	"context"
	"errors"

	"learnfinity/internal/domain/gap"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type GapUsecase interface {
	// Analyze compares an employee with a position. A nil positionID uses the
	// employee's assigned position.
	Analyze(ctx context.Context, employeeID, positionID uuid.UUID) (gap.Result, error)
}

type Gaps struct {
	employees repository.EmployeeRepository
	skills    repository.EmployeeSkillRepository
	positions repository.PositionRepository
}

func NewGapUsecase(employees repository.EmployeeRepository, skills repository.EmployeeSkillRepository, positions repository.PositionRepository) *Gaps {
	return &Gaps{employees: employees, skills: skills, positions: positions}
}

func (u *Gaps) Analyze(ctx context.Context, employeeID, positionID uuid.UUID) (gap.Result, error) {
	if positionID == uuid.Nil {
		e, err := u.employees.FindByID(ctx, employeeID)
		if err != nil {
			if errors.Is(err, repository.ErrEmployeeNotFound) {
				return gap.Result{}, ErrEmployeeNotFound
			}
			return gap.Result{}, internal("gap.employee", err)
		}
		if !e.PositionID.Valid {
			return gap.Result{}, ErrNoPosition
		}
		positionID = e.PositionID.UUID
	}

	ok, err := u.positions.ExistsByID(ctx, positionID)
	if err != nil {
		return gap.Result{}, internal("gap.position", err)
	}
	if !ok {
		return gap.Result{}, ErrPositionNotFound
	}
	ok, err = u.employees.ExistsByID(ctx, employeeID)
	if err != nil {
		return gap.Result{}, internal("gap.employee", err)
	}
	if !ok {
		return gap.Result{}, ErrEmployeeNotFound
	}

	reqs, err := u.positions.ListRequirements(ctx, positionID)
	if err != nil {
		return gap.Result{}, internal("gap.requirements", err)
	}
	records, err := u.skills.ListByEmployee(ctx, employeeID)
	if err != nil {
		return gap.Result{}, internal("gap.skills", err)
	}

	held := make([]gap.EmployeeSkill, 0, len(records))
	for _, r := range records {
		if !r.Mapped() {
			continue
		}
		held = append(held, gap.EmployeeSkill{SkillID: r.TaxonomySkillID.UUID, Proficiency: r.Proficiency})
	}
	required := make([]gap.Requirement, 0, len(reqs))
	for _, r := range reqs {
		required = append(required, gap.Requirement{
			SkillID:             r.SkillID,
			SkillName:           r.SkillName,
			Importance:          r.Importance,
			RequiredProficiency: r.RequiredProficiency,
		})
	}
	return gap.Analyze(held, required), nil
}
