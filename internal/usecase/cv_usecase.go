package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/normalize"
	"learnfinity/internal/llm"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	maxCVLength          = 60_000
	defaultCVProficiency = 3
)

type CVSkillOutcome struct {
	Name        string           `json:"name"`
	Proficiency int              `json:"proficiency"`
	RecordID    uuid.UUID        `json:"record_id"`
	SkillID     *uuid.UUID       `json:"skill_id"`
	SkillName   string           `json:"skill_name,omitempty"`
	Method      normalize.Method `json:"method,omitempty"`
	Existing    bool             `json:"existing,omitempty"`
}

type CVResult struct {
	Profile json.RawMessage  `json:"profile"`
	Skills  []CVSkillOutcome `json:"skills"`
}

type CVUsecase interface {
	Ingest(ctx context.Context, employeeID uuid.UUID, cvText string) (CVResult, error)
}

type CV struct {
	employees  repository.EmployeeRepository
	skills     repository.EmployeeSkillRepository
	normalizer NormalizationUsecase
	llm        llm.Completer
	log        *logger.Logger
	now        func() time.Time
}

func NewCVUsecase(
	employees repository.EmployeeRepository,
	skills repository.EmployeeSkillRepository,
	normalizer NormalizationUsecase,
	completer llm.Completer,
	log *logger.Logger,
) *CV {
	if log == nil {
		log = logger.Nop()
	}
	return &CV{employees: employees, skills: skills, normalizer: normalizer, llm: completer, log: log, now: time.Now}
}

// Ingest extracts a structured profile from a plain-text CV, stores it on the
// employee and records every listed skill with source cv.
func (u *CV) Ingest(ctx context.Context, employeeID uuid.UUID, cvText string) (CVResult, error) {
	cvText = strings.TrimSpace(cvText)
	if cvText == "" || len(cvText) > maxCVLength {
		return CVResult{}, ErrInvalidInput
	}
	ok, err := u.employees.ExistsByID(ctx, employeeID)
	if err != nil {
		return CVResult{}, internal("cv.employee", err)
	}
	if !ok {
		return CVResult{}, ErrEmployeeNotFound
	}

	out, err := u.llm.Complete(ctx, llm.Request{Messages: llm.CVMessages(cvText)})
	if err != nil {
		if errors.Is(err, llm.ErrLLMDisabled) {
			return CVResult{}, ErrLLMDisabled
		}
		return CVResult{}, err
	}
	profile, err := llm.ExtractJSON(out.Text)
	if err != nil {
		return CVResult{}, &LLMResponseError{Raw: out.Text, Err: err}
	}

	if err := u.employees.SaveCVData(ctx, employeeID, profile, u.now()); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return CVResult{}, ErrEmployeeNotFound
		}
		return CVResult{}, internal("cv.save", err)
	}

	existing, err := u.skills.ListByEmployee(ctx, employeeID)
	if err != nil {
		return CVResult{}, internal("cv.skills", err)
	}
	known := make(map[string]employee.SkillRecord, len(existing))
	for _, r := range existing {
		known[normalize.Key(r.RawText)] = r
	}

	result := CVResult{Profile: profile, Skills: make([]CVSkillOutcome, 0)}
	for _, s := range parseCVSkills(profile) {
		key := normalize.Key(s.Name)
		if rec, ok := known[key]; ok {
			rec = u.raise(ctx, rec, s)
			known[key] = rec
			result.Skills = append(result.Skills, outcomeFor(s, rec, normalize.Result{}, true))
			continue
		}

		rec, err := u.skills.Create(ctx, employee.SkillRecord{
			EmployeeID:  employeeID,
			RawText:     s.Name,
			Proficiency: s.Proficiency,
			Source:      employee.SourceCV,
		})
		if err != nil {
			u.log.Warn("store cv skill failed", "employee_id", employeeID, "skill", s.Name, "error", err)
			continue
		}

		kept, res, err := u.normalizer.NormalizeRecord(ctx, rec)
		if err != nil {
			u.log.Warn("normalize cv skill failed", "record_id", rec.ID, "error", err)
			kept = rec
		}
		known[key] = kept
		result.Skills = append(result.Skills, outcomeFor(s, kept, res, kept.ID != rec.ID))
	}

	u.log.Info("cv processed", "employee_id", employeeID, "skills", len(result.Skills), "model", out.Model)
	return result, nil
}

// raise applies a CV entry to a record the employee already has. A stronger
// claim lifts the stored proficiency; a weaker one changes nothing.
func (u *CV) raise(ctx context.Context, rec employee.SkillRecord, s cvSkill) employee.SkillRecord {
	merged, changed := rec.Absorb(employee.SkillRecord{Proficiency: s.Proficiency, Source: employee.SourceCV})
	if !changed {
		return rec
	}
	updated, err := u.skills.Update(ctx, merged)
	if err != nil {
		u.log.Warn("raise cv skill failed", "record_id", rec.ID, "error", err)
		return rec
	}
	return updated
}

type cvSkill struct {
	Name        string
	Proficiency int
}

// parseCVSkills reads skills leniently: entries may be plain strings or
// objects, and proficiency may be missing, fractional or out of range.
func parseCVSkills(profile json.RawMessage) []cvSkill {
	seen := map[string]bool{}
	out := make([]cvSkill, 0)
	gjson.GetBytes(profile, "skills").ForEach(func(_, v gjson.Result) bool {
		var s cvSkill
		if v.Type == gjson.String {
			s.Name = v.String()
		} else {
			s.Name = v.Get("name").String()
			if p := v.Get("proficiency"); p.Exists() {
				s.Proficiency = int(math.Round(p.Float()))
			}
		}
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return true
		}
		if !employee.ValidProficiency(s.Proficiency) {
			s.Proficiency = clampProficiency(s.Proficiency)
		}
		key := normalize.Key(s.Name)
		if seen[key] {
			return true
		}
		seen[key] = true
		out = append(out, s)
		return true
	})
	return out
}

func clampProficiency(p int) int {
	switch {
	case p <= 0:
		return defaultCVProficiency
	case p > employee.MaxProficiency:
		return employee.MaxProficiency
	default:
		return p
	}
}

func outcomeFor(s cvSkill, rec employee.SkillRecord, res normalize.Result, existing bool) CVSkillOutcome {
	o := CVSkillOutcome{
		Name:        s.Name,
		Proficiency: s.Proficiency,
		RecordID:    rec.ID,
		Method:      res.Method,
		Existing:    existing,
	}
	switch {
	case res.Matched():
		id := res.SkillID
		o.SkillID = &id
		o.SkillName = res.SkillName
	case rec.Mapped():
		id := rec.TaxonomySkillID.UUID
		o.SkillID = &id
		o.SkillName = rec.SkillName
	}
	return o
}
