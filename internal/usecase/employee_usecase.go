package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"learnfinity/internal/domain/employee"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type CreateEmployeeInput struct {
	UserID          uuid.NullUUID
	Name            string
	Email           string
	JobTitle        string
	Department      string
	ExperienceLevel string
	PositionID      uuid.NullUUID
}

type EmployeeUsecase interface {
	List(ctx context.Context, limit, offset int) ([]employee.Employee, error)
	Get(ctx context.Context, id uuid.UUID) (employee.Employee, error)
	ForUser(ctx context.Context, userID uuid.UUID) (employee.Employee, error)
	Create(ctx context.Context, in CreateEmployeeInput) (employee.Employee, error)
	AssignPosition(ctx context.Context, id uuid.UUID, positionID uuid.NullUUID) error
}

type Employees struct {
	repo      repository.EmployeeRepository
	positions repository.PositionRepository
}

func NewEmployeeUsecase(repo repository.EmployeeRepository, positions repository.PositionRepository) *Employees {
	return &Employees{repo: repo, positions: positions}
}

func (u *Employees) List(ctx context.Context, limit, offset int) ([]employee.Employee, error) {
	limit, offset, err := clampPage(limit, offset)
	if err != nil {
		return nil, err
	}
	out, err := u.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal("employee.list", err)
	}
	return out, nil
}

func (u *Employees) Get(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	e, err := u.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return employee.Employee{}, ErrEmployeeNotFound
		}
		return employee.Employee{}, internal("employee.get", err)
	}
	return e, nil
}

// ForUser returns the employee record linked to a login.
func (u *Employees) ForUser(ctx context.Context, userID uuid.UUID) (employee.Employee, error) {
	e, err := u.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return employee.Employee{}, ErrEmployeeNotFound
		}
		return employee.Employee{}, internal("employee.for_user", err)
	}
	return e, nil
}

func (u *Employees) Create(ctx context.Context, in CreateEmployeeInput) (employee.Employee, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return employee.Employee{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return employee.Employee{}, ErrInvalidInput
	}
	if in.PositionID.Valid {
		if err := u.requirePosition(ctx, in.PositionID.UUID); err != nil {
			return employee.Employee{}, err
		}
	}

	created, err := u.repo.Create(ctx, employee.Employee{
		UserID:          in.UserID,
		Name:            name,
		Email:           email,
		JobTitle:        strings.TrimSpace(in.JobTitle),
		Department:      strings.TrimSpace(in.Department),
		ExperienceLevel: strings.TrimSpace(in.ExperienceLevel),
		PositionID:      in.PositionID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return employee.Employee{}, ErrEmployeeExists
		}
		if isForeignKeyViolation(err) {
			return employee.Employee{}, ErrPositionNotFound
		}
		return employee.Employee{}, internal("employee.create", err)
	}
	return created, nil
}

func (u *Employees) AssignPosition(ctx context.Context, id uuid.UUID, positionID uuid.NullUUID) error {
	if positionID.Valid {
		if err := u.requirePosition(ctx, positionID.UUID); err != nil {
			return err
		}
	}
	if err := u.repo.SetPosition(ctx, id, positionID); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return ErrEmployeeNotFound
		}
		return internal("employee.assign_position", err)
	}
	return nil
}

func (u *Employees) requirePosition(ctx context.Context, id uuid.UUID) error {
	ok, err := u.positions.ExistsByID(ctx, id)
	if err != nil {
		return internal("employee.position", err)
	}
	if !ok {
		return ErrPositionNotFound
	}
	return nil
}
