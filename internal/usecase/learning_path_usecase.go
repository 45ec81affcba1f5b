package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/domain/course"
	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/gap"
	"learnfinity/internal/events"
	"learnfinity/internal/llm"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
)

const (
	// Catalog courses offered to the model, best gap coverage first.
	pathCandidates = 12
	catalogPage    = 100
	catalogMax     = 1000
)

type LearningPathUsecase interface {
	// Get returns the stored path, generating one the first time.
	Get(ctx context.Context, employeeID uuid.UUID) (course.LearningPath, error)
	// Generate builds a fresh path and replaces the stored one.
	Generate(ctx context.Context, employeeID uuid.UUID) (course.LearningPath, error)
}

type LearningPathDeps struct {
	Paths     repository.LearningPathRepository
	Courses   repository.CourseRepository
	Employees repository.EmployeeRepository
	Gaps      GapUsecase
	LLM       llm.Completer
	Cache     Cache
	Events    events.Publisher
}

type LearningPaths struct {
	paths     repository.LearningPathRepository
	courses   repository.CourseRepository
	employees repository.EmployeeRepository
	gaps      GapUsecase
	llm       llm.Completer
	cache     Cache
	events    events.Publisher
	flags     config.FeatureFlags
	lockTTL   time.Duration
	log       *logger.Logger
}

func NewLearningPathUsecase(deps LearningPathDeps, cfg config.Config, log *logger.Logger) *LearningPaths {
	if log == nil {
		log = logger.Nop()
	}
	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &LearningPaths{
		paths:     deps.Paths,
		courses:   deps.Courses,
		employees: deps.Employees,
		gaps:      deps.Gaps,
		llm:       deps.LLM,
		cache:     deps.Cache,
		events:    pub,
		flags:     cfg.Features,
		lockTTL:   cfg.LLM.Timeout*time.Duration(cfg.LLM.MaxRetries+1) + 30*time.Second,
		log:       log.With("component", "LearningPaths"),
	}
}

func pathLockKey(employeeID uuid.UUID) string {
	return "learning-path:lock:" + employeeID.String()
}

func (u *LearningPaths) Get(ctx context.Context, employeeID uuid.UUID) (course.LearningPath, error) {
	if employeeID == uuid.Nil {
		return course.LearningPath{}, ErrInvalidInput
	}
	p, err := u.paths.FindByEmployee(ctx, employeeID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, repository.ErrLearningPathNotFound):
		return u.Generate(ctx, employeeID)
	default:
		return course.LearningPath{}, internal("learning_path.find", err)
	}
}

// Generate asks the model for a sequenced plan over the employee's gaps and
// the catalog courses that cover them. Steps naming a course outside the
// catalog keep their text but lose the course id.
func (u *LearningPaths) Generate(ctx context.Context, employeeID uuid.UUID) (course.LearningPath, error) {
	if !u.flags.EnableLLM {
		return course.LearningPath{}, ErrLLMDisabled
	}
	if employeeID == uuid.Nil {
		return course.LearningPath{}, ErrInvalidInput
	}

	emp, err := u.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return course.LearningPath{}, ErrEmployeeNotFound
		}
		return course.LearningPath{}, internal("learning_path.employee", err)
	}
	if !emp.HasProfile() {
		return course.LearningPath{}, ErrProfileMissing
	}

	var gaps []gap.Gap
	if emp.PositionID.Valid {
		res, err := u.gaps.Analyze(ctx, emp.ID, emp.PositionID.UUID)
		if err != nil {
			return course.LearningPath{}, err
		}
		gaps = res.Gaps
	}

	catalog, err := u.catalog(ctx)
	if err != nil {
		return course.LearningPath{}, err
	}
	candidates := course.RankCourses(catalog, gaps, pathCandidates)

	if u.cache != nil {
		key, owner := pathLockKey(emp.ID), uuid.NewString()
		ok, err := u.cache.AcquireLock(ctx, key, owner, u.lockTTL)
		if err != nil {
			u.log.Warn("learning path lock unavailable", "key", key, "error", err)
		}
		if !ok {
			return course.LearningPath{}, ErrGenerationInProgress
		}
		defer func() {
			if err := u.cache.ReleaseLock(context.WithoutCancel(ctx), key, owner); err != nil {
				u.log.Warn("release learning path lock failed", "key", key, "error", err)
			}
		}()
	}

	log := u.log.With("employee_id", emp.ID)
	out, err := u.llm.Complete(ctx, llm.Request{Messages: llm.LearningPathMessages(pathInput(emp, gaps, candidates))})
	if err != nil {
		log.Warn("llm completion failed", "error", err)
		if errors.Is(err, llm.ErrLLMDisabled) {
			return course.LearningPath{}, ErrLLMDisabled
		}
		return course.LearningPath{}, err
	}

	body, err := parsePath(out.Text)
	if err != nil {
		log.Warn("llm output rejected", "error", err, "model", out.Model)
		return course.LearningPath{}, &LLMResponseError{Raw: out.Text, Err: err}
	}
	offered := make(map[uuid.UUID]bool, len(catalog))
	for _, c := range catalog {
		offered[c.ID] = true
	}
	body = body.Sequenced(func(id uuid.UUID) bool { return offered[id] })

	saved, err := u.paths.Save(context.WithoutCancel(ctx), course.LearningPath{
		EmployeeID:       emp.ID,
		Path:             body,
		RawResponse:      out.Text,
		Model:            out.Model,
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
		GeneratedAt:      time.Now(),
	})
	if err != nil {
		return course.LearningPath{}, internal("learning_path.save", err)
	}

	if err := u.events.Publish(context.WithoutCancel(ctx), events.New(events.TypeLearningPathGenerated, events.LearningPath{
		EmployeeID: emp.ID, Steps: len(body.Steps), Model: out.Model,
	})); err != nil {
		log.Warn("publish event failed", "type", events.TypeLearningPathGenerated, "error", err)
	}
	log.Info("learning path generated", "model", out.Model, "steps", len(body.Steps), "gaps", len(gaps), "candidates", len(candidates))
	return saved, nil
}

// catalog pages through every course up to catalogMax.
func (u *LearningPaths) catalog(ctx context.Context) ([]course.Course, error) {
	var all []course.Course
	for offset := 0; offset < catalogMax; offset += catalogPage {
		page, err := u.courses.List(ctx, catalogPage, offset)
		if err != nil {
			return nil, internal("learning_path.courses", err)
		}
		all = append(all, page...)
		if len(page) < catalogPage {
			break
		}
	}
	return all, nil
}

func pathInput(emp employee.Employee, gaps []gap.Gap, candidates []course.Course) llm.LearningPathInput {
	in := llm.LearningPathInput{
		EmployeeName:    emp.Name,
		JobTitle:        emp.JobTitle,
		Department:      emp.Department,
		ExperienceLevel: emp.ExperienceLevel,
		Profile:         emp.CVData,
		Gaps:            gaps,
		MaxSteps:        course.MaxPathSteps,
	}
	for _, c := range candidates {
		in.Courses = append(in.Courses, llm.PathCourse{ID: c.ID.String(), Title: c.Title, Description: c.Description, Level: c.Level})
	}
	return in
}

func parsePath(text string) (course.PathBody, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return course.PathBody{}, err
	}
	var body course.PathBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return course.PathBody{}, fmt.Errorf("%w: %v", course.ErrInvalidPath, err)
	}
	if err := body.Validate(); err != nil {
		return course.PathBody{}, err
	}
	return body, nil
}
