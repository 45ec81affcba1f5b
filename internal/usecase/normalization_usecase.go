package usecase

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/normalize"
	"learnfinity/internal/events"
	"learnfinity/internal/metrics"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

type NormalizeSummary struct {
	Processed int `json:"processed"`
	Mapped    int `json:"mapped"`
	Unmapped  int `json:"unmapped"`
	Failed    int `json:"failed"`
}

type NormalizationUsecase interface {
	Normalize(ctx context.Context, raw string) (normalize.Result, error)
	NormalizeRecord(ctx context.Context, rec employee.SkillRecord) (employee.SkillRecord, normalize.Result, error)
	NormalizeEmployee(ctx context.Context, employeeID uuid.UUID) (NormalizeSummary, error)
	ListUnmapped(ctx context.Context, limit, offset int) ([]employee.SkillRecord, error)
	MapManually(ctx context.Context, recordID, skillID uuid.UUID) (employee.SkillRecord, error)
}

type Normalization struct {
	taxonomy  TaxonomyUsecase
	taxRepo   repository.TaxonomyRepository
	skills    repository.EmployeeSkillRepository
	employees repository.EmployeeRepository
	logs      repository.NormalizationLogRepository
	events    events.Publisher
	log       *logger.Logger
}

func NewNormalizationUsecase(
	taxonomy TaxonomyUsecase,
	taxRepo repository.TaxonomyRepository,
	skills repository.EmployeeSkillRepository,
	employees repository.EmployeeRepository,
	logs repository.NormalizationLogRepository,
	publisher events.Publisher,
	log *logger.Logger,
) *Normalization {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Normalization{
		taxonomy:  taxonomy,
		taxRepo:   taxRepo,
		skills:    skills,
		employees: employees,
		logs:      logs,
		events:    publisher,
		log:       log,
	}
}

// Normalize matches free text without attaching it to a skill record. The
// attempt is still logged.
func (u *Normalization) Normalize(ctx context.Context, raw string) (normalize.Result, error) {
	if strings.TrimSpace(raw) == "" {
		return normalize.Result{}, ErrInvalidInput
	}
	n, err := u.taxonomy.Normalizer(ctx)
	if err != nil {
		return normalize.Result{}, err
	}
	res := n.Match(raw)
	metrics.Normalizations.WithLabelValues(string(res.Method)).Inc()

	if err := u.logs.Insert(ctx, logEntry(uuid.NullUUID{}, res)); err != nil {
		return res, internal("normalize.log", err)
	}
	return res, nil
}

// NormalizeRecord maps a stored record's raw text onto the taxonomy. Records
// that stay unmapped are left for manual review. A match on a skill the
// employee already holds merges the two, so the returned record may be the
// older one.
func (u *Normalization) NormalizeRecord(ctx context.Context, rec employee.SkillRecord) (employee.SkillRecord, normalize.Result, error) {
	n, err := u.taxonomy.Normalizer(ctx)
	if err != nil {
		return rec, normalize.Result{}, err
	}
	return u.normalizeWith(ctx, n, rec)
}

func (u *Normalization) normalizeWith(ctx context.Context, n *normalize.Normalizer, rec employee.SkillRecord) (employee.SkillRecord, normalize.Result, error) {
	res := n.Match(rec.RawText)
	metrics.Normalizations.WithLabelValues(string(res.Method)).Inc()

	if res.Matched() {
		kept, err := u.assign(ctx, rec, res.SkillID, "normalize.record")
		if err != nil {
			return rec, res, err
		}
		rec = kept
	}

	if err := u.logs.Insert(ctx, logEntry(uuid.NullUUID{UUID: rec.ID, Valid: true}, res)); err != nil {
		return rec, res, internal("normalize.log", err)
	}

	u.publish(ctx, rec, res)
	return rec, res, nil
}

// assign maps rec onto skillID and returns the record that survives. A
// concurrent mapping of another record onto the same skill trips the unique
// index once; the retry then merges into that record.
func (u *Normalization) assign(ctx context.Context, rec employee.SkillRecord, skillID uuid.UUID, op string) (employee.SkillRecord, error) {
	kept, err := u.skills.AssignSkill(ctx, rec.ID, skillID)
	if isUniqueViolation(err) {
		kept, err = u.skills.AssignSkill(ctx, rec.ID, skillID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrSkillRecordNotFound) {
			return rec, ErrSkillRecordNotFound
		}
		return rec, internal(op, err)
	}
	if kept.ID != rec.ID {
		u.log.Info("skill record merged", "record_id", rec.ID, "into", kept.ID, "skill_id", skillID)
	}
	return kept, nil
}

func (u *Normalization) NormalizeEmployee(ctx context.Context, employeeID uuid.UUID) (NormalizeSummary, error) {
	exists, err := u.employees.ExistsByID(ctx, employeeID)
	if err != nil {
		return NormalizeSummary{}, internal("normalize.employee", err)
	}
	if !exists {
		return NormalizeSummary{}, ErrEmployeeNotFound
	}

	records, err := u.skills.ListByEmployee(ctx, employeeID)
	if err != nil {
		return NormalizeSummary{}, internal("normalize.employee", err)
	}
	n, err := u.taxonomy.Normalizer(ctx)
	if err != nil {
		return NormalizeSummary{}, err
	}

	var sum NormalizeSummary
	for _, rec := range records {
		if rec.Mapped() || strings.TrimSpace(rec.RawText) == "" {
			continue
		}
		sum.Processed++
		_, res, err := u.normalizeWith(ctx, n, rec)
		switch {
		case err != nil:
			sum.Failed++
			u.log.Warn("normalize record failed", "record_id", rec.ID, "error", err)
		case res.Matched():
			sum.Mapped++
		default:
			sum.Unmapped++
		}
	}
	return sum, nil
}

func (u *Normalization) ListUnmapped(ctx context.Context, limit, offset int) ([]employee.SkillRecord, error) {
	limit, offset, err := clampPage(limit, offset)
	if err != nil {
		return nil, err
	}
	out, err := u.skills.ListUnmapped(ctx, limit, offset)
	if err != nil {
		return nil, internal("normalize.unmapped", err)
	}
	return out, nil
}

// MapManually records an HR decision for a record the matcher could not place.
func (u *Normalization) MapManually(ctx context.Context, recordID, skillID uuid.UUID) (employee.SkillRecord, error) {
	if recordID == uuid.Nil || skillID == uuid.Nil {
		return employee.SkillRecord{}, ErrInvalidInput
	}
	skill, err := u.taxRepo.FindSkillByID(ctx, skillID)
	if err != nil {
		if errors.Is(err, repository.ErrTaxonomySkillNotFound) {
			return employee.SkillRecord{}, ErrSkillNotFound
		}
		return employee.SkillRecord{}, internal("normalize.manual", err)
	}
	rec, err := u.skills.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrSkillRecordNotFound) {
			return employee.SkillRecord{}, ErrSkillRecordNotFound
		}
		return employee.SkillRecord{}, internal("normalize.manual", err)
	}

	kept, err := u.assign(ctx, rec, skill.ID, "normalize.manual")
	if err != nil {
		return employee.SkillRecord{}, err
	}
	res := normalize.Result{
		Raw:        rec.RawText,
		SkillID:    skill.ID,
		SkillName:  skill.Name,
		Method:     normalize.MethodManual,
		Confidence: normalize.ConfidenceExact,
	}
	if err := u.logs.Insert(ctx, logEntry(uuid.NullUUID{UUID: kept.ID, Valid: true}, res)); err != nil {
		return employee.SkillRecord{}, internal("normalize.log", err)
	}
	metrics.Normalizations.WithLabelValues(string(res.Method)).Inc()
	u.publish(ctx, kept, res)

	kept.SkillName = skill.Name
	return kept, nil
}

func (u *Normalization) publish(ctx context.Context, rec employee.SkillRecord, res normalize.Result) {
	payload := events.SkillNormalized{
		EmployeeID:    rec.EmployeeID,
		SkillRecordID: rec.ID,
		RawText:       rec.RawText,
		Method:        string(res.Method),
		Confidence:    res.Confidence,
	}
	if res.Matched() {
		id := res.SkillID
		payload.SkillID = &id
	}
	if err := u.events.Publish(ctx, events.New(events.TypeSkillNormalized, payload)); err != nil {
		u.log.Warn("publish skill.normalized failed", "record_id", rec.ID, "error", err)
	}
}

func logEntry(recordID uuid.NullUUID, res normalize.Result) repository.NormalizationLog {
	entry := repository.NormalizationLog{
		EmployeeSkillID: recordID,
		RawText:         res.Raw,
		Method:          res.Method,
	}
	if res.Matched() {
		entry.MatchedSkillID = uuid.NullUUID{UUID: res.SkillID, Valid: true}
		c := res.Confidence
		entry.Confidence = &c
	}
	return entry
}
