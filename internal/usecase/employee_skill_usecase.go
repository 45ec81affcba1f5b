package usecase

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/domain/employee"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type AddSkillInput struct {
	// Either SkillID or RawText is required. Raw text is normalized.
	SkillID     uuid.UUID
	RawText     string
	Proficiency int
	Verified    bool
	Source      employee.Source
}

type UpdateSkillInput struct {
	Proficiency int
	Verified    bool
	Source      employee.Source
}

type EmployeeSkillUsecase interface {
	List(ctx context.Context, employeeID uuid.UUID) ([]employee.SkillRecord, error)
	Add(ctx context.Context, employeeID uuid.UUID, in AddSkillInput) (employee.SkillRecord, error)
	Update(ctx context.Context, employeeID, recordID uuid.UUID, in UpdateSkillInput) (employee.SkillRecord, error)
	Delete(ctx context.Context, employeeID, recordID uuid.UUID) error
}

type EmployeeSkills struct {
	repo       repository.EmployeeSkillRepository
	employees  repository.EmployeeRepository
	taxonomy   repository.TaxonomyRepository
	normalizer NormalizationUsecase
	log        *logger.Logger
}

func NewEmployeeSkillUsecase(
	repo repository.EmployeeSkillRepository,
	employees repository.EmployeeRepository,
	taxonomy repository.TaxonomyRepository,
	normalizer NormalizationUsecase,
	log *logger.Logger,
) *EmployeeSkills {
	if log == nil {
		log = logger.Nop()
	}
	return &EmployeeSkills{repo: repo, employees: employees, taxonomy: taxonomy, normalizer: normalizer, log: log}
}

func (u *EmployeeSkills) List(ctx context.Context, employeeID uuid.UUID) ([]employee.SkillRecord, error) {
	if err := u.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	out, err := u.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, internal("employee_skill.list", err)
	}
	return out, nil
}

// Add stores a skill record. Adding a taxonomy skill the employee already
// holds keeps one record at the higher proficiency.
func (u *EmployeeSkills) Add(ctx context.Context, employeeID uuid.UUID, in AddSkillInput) (employee.SkillRecord, error) {
	in.RawText = strings.TrimSpace(in.RawText)
	if in.SkillID == uuid.Nil && in.RawText == "" {
		return employee.SkillRecord{}, ErrInvalidInput
	}
	if !employee.ValidProficiency(in.Proficiency) {
		return employee.SkillRecord{}, ErrInvalidInput
	}
	if in.Source == "" {
		in.Source = employee.SourceSelfReported
	}
	if !in.Source.Valid() {
		return employee.SkillRecord{}, ErrInvalidInput
	}
	if err := u.requireEmployee(ctx, employeeID); err != nil {
		return employee.SkillRecord{}, err
	}

	if in.SkillID != uuid.Nil {
		return u.addMapped(ctx, employeeID, in)
	}

	rec, err := u.repo.Create(ctx, employee.SkillRecord{
		EmployeeID:  employeeID,
		RawText:     in.RawText,
		Proficiency: in.Proficiency,
		Verified:    in.Verified,
		Source:      in.Source,
	})
	if err != nil {
		return employee.SkillRecord{}, internal("employee_skill.add", err)
	}

	kept, res, err := u.normalizer.NormalizeRecord(ctx, rec)
	if err != nil {
		// The record is stored; it stays unmapped until the next pass.
		u.log.Warn("normalize new skill record failed", "record_id", rec.ID, "error", err)
		return rec, nil
	}
	if res.Matched() {
		kept.TaxonomySkillID = uuid.NullUUID{UUID: res.SkillID, Valid: true}
		kept.SkillName = res.SkillName
	}
	return kept, nil
}

func (u *EmployeeSkills) addMapped(ctx context.Context, employeeID uuid.UUID, in AddSkillInput) (employee.SkillRecord, error) {
	skill, err := u.taxonomy.FindSkillByID(ctx, in.SkillID)
	if err != nil {
		if errors.Is(err, repository.ErrTaxonomySkillNotFound) {
			return employee.SkillRecord{}, ErrSkillNotFound
		}
		return employee.SkillRecord{}, internal("employee_skill.add", err)
	}

	raw := in.RawText
	if raw == "" {
		raw = skill.Name
	}
	incoming := employee.SkillRecord{
		EmployeeID:      employeeID,
		TaxonomySkillID: uuid.NullUUID{UUID: skill.ID, Valid: true},
		RawText:         raw,
		Proficiency:     in.Proficiency,
		Verified:        in.Verified,
		Source:          in.Source,
	}

	merged, found, err := u.mergeIntoExisting(ctx, incoming)
	if err != nil || found {
		return merged, err
	}
	created, err := u.repo.Create(ctx, incoming)
	switch {
	case err == nil:
		return created, nil
	case isForeignKeyViolation(err):
		return employee.SkillRecord{}, ErrSkillNotFound
	case isUniqueViolation(err):
		// A concurrent add for the same skill won the insert.
		merged, _, err := u.mergeIntoExisting(ctx, incoming)
		return merged, err
	default:
		return employee.SkillRecord{}, internal("employee_skill.add", err)
	}
}

// mergeIntoExisting applies incoming to the record the employee already holds
// for the same taxonomy skill, if there is one.
func (u *EmployeeSkills) mergeIntoExisting(ctx context.Context, incoming employee.SkillRecord) (employee.SkillRecord, bool, error) {
	existing, err := u.repo.FindMapped(ctx, incoming.EmployeeID, incoming.TaxonomySkillID.UUID)
	if errors.Is(err, repository.ErrSkillRecordNotFound) {
		return employee.SkillRecord{}, false, nil
	}
	if err != nil {
		return employee.SkillRecord{}, false, internal("employee_skill.add", err)
	}

	merged, changed := existing.Absorb(incoming)
	if !changed {
		return existing, true, nil
	}
	updated, err := u.repo.Update(ctx, merged)
	if err != nil {
		return employee.SkillRecord{}, true, internal("employee_skill.add", err)
	}
	return updated, true, nil
}

func (u *EmployeeSkills) Update(ctx context.Context, employeeID, recordID uuid.UUID, in UpdateSkillInput) (employee.SkillRecord, error) {
	if !employee.ValidProficiency(in.Proficiency) {
		return employee.SkillRecord{}, ErrInvalidInput
	}
	if in.Source == "" {
		in.Source = employee.SourceSelfReported
	}
	if !in.Source.Valid() {
		return employee.SkillRecord{}, ErrInvalidInput
	}

	current, err := u.repo.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrSkillRecordNotFound) {
			return employee.SkillRecord{}, ErrSkillRecordNotFound
		}
		return employee.SkillRecord{}, internal("employee_skill.update", err)
	}
	if current.EmployeeID != employeeID {
		return employee.SkillRecord{}, ErrForbidden
	}

	current.Proficiency = in.Proficiency
	current.Verified = in.Verified
	current.Source = in.Source
	updated, err := u.repo.Update(ctx, current)
	if err != nil {
		if errors.Is(err, repository.ErrSkillRecordNotFound) {
			return employee.SkillRecord{}, ErrSkillRecordNotFound
		}
		return employee.SkillRecord{}, internal("employee_skill.update", err)
	}
	return updated, nil
}

func (u *EmployeeSkills) Delete(ctx context.Context, employeeID, recordID uuid.UUID) error {
	err := u.repo.Delete(ctx, recordID, employeeID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSkillRecordNotFound):
		return ErrSkillRecordNotFound
	case errors.Is(err, repository.ErrSkillRecordForbidden):
		return ErrForbidden
	default:
		return internal("employee_skill.delete", err)
	}
}

func (u *EmployeeSkills) requireEmployee(ctx context.Context, id uuid.UUID) error {
	ok, err := u.employees.ExistsByID(ctx, id)
	if err != nil {
		return internal("employee_skill.employee", err)
	}
	if !ok {
		return ErrEmployeeNotFound
	}
	return nil
}
