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
	"learnfinity/internal/metrics"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type GenerateInput struct {
	CourseID   uuid.UUID
	EmployeeID uuid.UUID
	// Nil means derive gaps from the employee's position.
	Gaps []gap.Gap
}

type PersonalizationUsecase interface {
	Generate(ctx context.Context, in GenerateInput) (course.GeneratedContent, error)
	Enqueue(ctx context.Context, in GenerateInput) (course.PersonalizationJob, bool, error)
	Job(ctx context.Context, id uuid.UUID) (course.PersonalizationJob, error)
	Content(ctx context.Context, courseID, employeeID uuid.UUID) (course.GeneratedContent, error)
	ProcessJob(ctx context.Context, job course.PersonalizationJob) error
}

type PersonalizationDeps struct {
	Courses   repository.CourseRepository
	Employees repository.EmployeeRepository
	Content   repository.ContentRepository
	Jobs      repository.PersonalizationJobRepository
	Gaps      GapUsecase
	LLM       llm.Completer
	Cache     Cache
	Events    events.Publisher
}

type Personalization struct {
	courses   repository.CourseRepository
	employees repository.EmployeeRepository
	content   repository.ContentRepository
	jobs      repository.PersonalizationJobRepository
	gaps      GapUsecase
	llm       llm.Completer
	cache     Cache
	events    events.Publisher
	flags     config.FeatureFlags
	lockTTL   time.Duration
	log       *logger.Logger
}

func NewPersonalizationUsecase(deps PersonalizationDeps, cfg config.Config, log *logger.Logger) *Personalization {
	if log == nil {
		log = logger.Nop()
	}
	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}
	lockTTL := cfg.LLM.Timeout*time.Duration(cfg.LLM.MaxRetries+1) + 30*time.Second
	return &Personalization{
		courses:   deps.Courses,
		employees: deps.Employees,
		content:   deps.Content,
		jobs:      deps.Jobs,
		gaps:      deps.Gaps,
		llm:       deps.LLM,
		cache:     deps.Cache,
		events:    pub,
		flags:     cfg.Features,
		lockTTL:   lockTTL,
		log:       log.With("component", "Personalization"),
	}
}

func lockKey(courseID, employeeID uuid.UUID) string {
	return fmt.Sprintf("personalize:lock:%s:%s", courseID, employeeID)
}

// Generate produces personalized content for one course and employee and
// records the outcome. Content is only stored as completed once the model
// output parsed into a valid body; otherwise the row is marked failed with
// the raw output kept for inspection.
func (u *Personalization) Generate(ctx context.Context, in GenerateInput) (course.GeneratedContent, error) {
	if !u.flags.EnableLLM {
		return course.GeneratedContent{}, ErrLLMDisabled
	}
	if in.CourseID == uuid.Nil || in.EmployeeID == uuid.Nil {
		return course.GeneratedContent{}, ErrInvalidInput
	}

	crs, emp, err := u.load(ctx, in.CourseID, in.EmployeeID)
	if err != nil {
		return course.GeneratedContent{}, err
	}
	if !emp.HasProfile() {
		return course.GeneratedContent{}, ErrProfileMissing
	}

	gaps := in.Gaps
	if gaps == nil && emp.PositionID.Valid {
		res, err := u.gaps.Analyze(ctx, emp.ID, emp.PositionID.UUID)
		if err != nil {
			return course.GeneratedContent{}, err
		}
		gaps = res.Gaps
	}

	owner := uuid.NewString()
	key := lockKey(crs.ID, emp.ID)
	if u.cache != nil {
		ok, err := u.cache.AcquireLock(ctx, key, owner, u.lockTTL)
		if err != nil {
			u.log.Warn("generation lock unavailable", "key", key, "error", err)
		}
		if !ok {
			return course.GeneratedContent{}, ErrGenerationInProgress
		}
		defer func() {
			if err := u.cache.ReleaseLock(context.WithoutCancel(ctx), key, owner); err != nil {
				u.log.Warn("release generation lock failed", "key", key, "error", err)
			}
		}()
	}

	log := u.log.With("course_id", crs.ID, "employee_id", emp.ID)
	if err := u.content.MarkGenerating(ctx, crs.ID, emp.ID); err != nil {
		return course.GeneratedContent{}, internal("personalize.mark_generating", err)
	}
	u.publish(ctx, events.TypePersonalizationGenerating, events.Personalization{CourseID: crs.ID, EmployeeID: emp.ID, Status: string(course.StatusGenerating)})

	out, err := u.llm.Complete(ctx, llm.Request{Messages: llm.PersonalizationMessages(llm.PersonalizationInput{
		CourseTitle:       crs.Title,
		CourseDescription: crs.Description,
		EmployeeName:      emp.Name,
		JobTitle:          emp.JobTitle,
		Department:        emp.Department,
		ExperienceLevel:   emp.ExperienceLevel,
		Profile:           emp.CVData,
		Gaps:              gaps,
	})})
	if err != nil {
		log.Warn("llm completion failed", "error", err)
		u.fail(ctx, crs.ID, emp.ID, err.Error(), "")
		if errors.Is(err, llm.ErrLLMDisabled) {
			return course.GeneratedContent{}, ErrLLMDisabled
		}
		return course.GeneratedContent{}, err
	}

	body, err := parseContent(out.Text)
	if err != nil {
		log.Warn("llm output rejected", "error", err, "model", out.Model)
		u.fail(ctx, crs.ID, emp.ID, err.Error(), out.Text)
		return course.GeneratedContent{}, &LLMResponseError{Raw: out.Text, Err: err}
	}

	saved, err := u.content.MarkCompleted(context.WithoutCancel(ctx), crs.ID, emp.ID, repository.CompletedContent{
		Content:          body,
		RawResponse:      out.Text,
		Model:            out.Model,
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
	})
	if err != nil {
		u.fail(ctx, crs.ID, emp.ID, err.Error(), out.Text)
		return course.GeneratedContent{}, internal("personalize.mark_completed", err)
	}

	metrics.Personalizations.WithLabelValues(string(course.StatusCompleted)).Inc()
	u.publish(ctx, events.TypePersonalizationCompleted, events.Personalization{
		CourseID: crs.ID, EmployeeID: emp.ID, Status: string(course.StatusCompleted), Model: out.Model,
	})
	log.Info("personalized content generated", "model", out.Model, "prompt_tokens", out.PromptTokens, "completion_tokens", out.CompletionTokens, "gaps", len(gaps))
	return saved, nil
}

// parseContent extracts the JSON body and checks it has the required shape.
func parseContent(text string) (json.RawMessage, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var pc course.PersonalizedContent
	if err := json.Unmarshal(raw, &pc); err != nil {
		return nil, fmt.Errorf("%w: %v", course.ErrInvalidContent, err)
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (u *Personalization) load(ctx context.Context, courseID, employeeID uuid.UUID) (course.Course, employee.Employee, error) {
	var crs course.Course
	var emp employee.Employee

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := u.courses.FindByID(gctx, courseID)
		if err != nil {
			if errors.Is(err, repository.ErrCourseNotFound) {
				return ErrCourseNotFound
			}
			return internal("personalize.course", err)
		}
		crs = c
		return nil
	})
	g.Go(func() error {
		e, err := u.employees.FindByID(gctx, employeeID)
		if err != nil {
			if errors.Is(err, repository.ErrEmployeeNotFound) {
				return ErrEmployeeNotFound
			}
			return internal("personalize.employee", err)
		}
		emp = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return course.Course{}, employee.Employee{}, err
	}
	return crs, emp, nil
}

func (u *Personalization) fail(ctx context.Context, courseID, employeeID uuid.UUID, reason, raw string) {
	metrics.Personalizations.WithLabelValues(string(course.StatusFailed)).Inc()
	if err := u.content.MarkFailed(context.WithoutCancel(ctx), courseID, employeeID, reason, raw); err != nil {
		u.log.Error("mark content failed", "course_id", courseID, "employee_id", employeeID, "error", err)
	}
	u.publish(ctx, events.TypePersonalizationFailed, events.Personalization{
		CourseID: courseID, EmployeeID: employeeID, Status: string(course.StatusFailed), Error: reason,
	})
}

func (u *Personalization) publish(ctx context.Context, t events.Type, p events.Personalization) {
	if err := u.events.Publish(context.WithoutCancel(ctx), events.New(t, p)); err != nil {
		u.log.Warn("publish event failed", "type", t, "error", err)
	}
}

// Enqueue puts a generation on the durable queue. An existing queued or
// running job for the pair is returned instead of a new one.
func (u *Personalization) Enqueue(ctx context.Context, in GenerateInput) (course.PersonalizationJob, bool, error) {
	if in.CourseID == uuid.Nil || in.EmployeeID == uuid.Nil {
		return course.PersonalizationJob{}, false, ErrInvalidInput
	}
	ok, err := u.courses.ExistsByID(ctx, in.CourseID)
	if err != nil {
		return course.PersonalizationJob{}, false, internal("personalize.enqueue", err)
	}
	if !ok {
		return course.PersonalizationJob{}, false, ErrCourseNotFound
	}
	ok, err = u.employees.ExistsByID(ctx, in.EmployeeID)
	if err != nil {
		return course.PersonalizationJob{}, false, internal("personalize.enqueue", err)
	}
	if !ok {
		return course.PersonalizationJob{}, false, ErrEmployeeNotFound
	}

	job, created, err := u.jobs.Enqueue(ctx, in.CourseID, in.EmployeeID, in.Gaps)
	if err != nil {
		return course.PersonalizationJob{}, false, internal("personalize.enqueue", err)
	}
	if created {
		if err := u.content.MarkPending(ctx, in.CourseID, in.EmployeeID); err != nil {
			u.log.Warn("mark content pending failed", "job_id", job.ID, "error", err)
		}
	}
	return job, created, nil
}

func (u *Personalization) Job(ctx context.Context, id uuid.UUID) (course.PersonalizationJob, error) {
	job, err := u.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return course.PersonalizationJob{}, ErrJobNotFound
		}
		return course.PersonalizationJob{}, internal("personalize.job", err)
	}
	return job, nil
}

func (u *Personalization) Content(ctx context.Context, courseID, employeeID uuid.UUID) (course.GeneratedContent, error) {
	c, err := u.content.FindByCourseAndEmployee(ctx, courseID, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return course.GeneratedContent{}, ErrContentNotFound
		}
		return course.GeneratedContent{}, internal("personalize.content", err)
	}
	return c, nil
}

// ProcessJob runs a queued generation; it satisfies worker.Processor.
func (u *Personalization) ProcessJob(ctx context.Context, job course.PersonalizationJob) error {
	_, err := u.Generate(ctx, GenerateInput{CourseID: job.CourseID, EmployeeID: job.EmployeeID, Gaps: job.Gaps})
	return err
}
