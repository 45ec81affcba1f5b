package usecase

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/config"
	"learnfinity/internal/domain/course"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"
	"learnfinity/internal/worker"

	"github.com/google/uuid"
)

type CreateCourseInput struct {
	Title       string
	Description string
	Level       string
}

type EnrollResult struct {
	Enrollment course.Enrollment
	Job        *course.PersonalizationJob
}

type RegenerateSummary struct {
	Enrolled int      `json:"enrolled"`
	Queued   int      `json:"queued"`
	Skipped  int      `json:"skipped"`
	Updated  int      `json:"updated"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

type CourseUsecase interface {
	List(ctx context.Context, limit, offset int) ([]course.Course, error)
	Get(ctx context.Context, id uuid.UUID) (course.Course, error)
	Create(ctx context.Context, in CreateCourseInput) (course.Course, error)
	Enroll(ctx context.Context, courseID, employeeID uuid.UUID) (EnrollResult, error)
	Contents(ctx context.Context, courseID uuid.UUID) ([]course.GeneratedContent, error)
	Regenerate(ctx context.Context, courseID uuid.UUID) (RegenerateSummary, error)
	RegenerateInline(ctx context.Context, courseID uuid.UUID, workers int) (RegenerateSummary, error)
}

type Courses struct {
	repo      repository.CourseRepository
	employees repository.EmployeeRepository
	content   repository.ContentRepository
	gaps      GapUsecase
	personal  PersonalizationUsecase
	flags     config.FeatureFlags
	log       *logger.Logger
}

func NewCourseUsecase(
	repo repository.CourseRepository,
	employees repository.EmployeeRepository,
	content repository.ContentRepository,
	gaps GapUsecase,
	personal PersonalizationUsecase,
	flags config.FeatureFlags,
	log *logger.Logger,
) *Courses {
	if log == nil {
		log = logger.Nop()
	}
	return &Courses{
		repo:      repo,
		employees: employees,
		content:   content,
		gaps:      gaps,
		personal:  personal,
		flags:     flags,
		log:       log.With("component", "Courses"),
	}
}

func (u *Courses) List(ctx context.Context, limit, offset int) ([]course.Course, error) {
	limit, offset, err := clampPage(limit, offset)
	if err != nil {
		return nil, err
	}
	out, err := u.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal("course.list", err)
	}
	return out, nil
}

func (u *Courses) Get(ctx context.Context, id uuid.UUID) (course.Course, error) {
	c, err := u.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return course.Course{}, ErrCourseNotFound
		}
		return course.Course{}, internal("course.get", err)
	}
	return c, nil
}

func (u *Courses) Create(ctx context.Context, in CreateCourseInput) (course.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return course.Course{}, ErrInvalidInput
	}
	c, err := u.repo.Create(ctx, course.Course{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Level:       strings.TrimSpace(in.Level),
	})
	if err != nil {
		return course.Course{}, internal("course.create", err)
	}
	return c, nil
}

// Enroll records the enrollment with the employee's current RAG status and,
// when batch processing is on, queues content generation for the pair.
func (u *Courses) Enroll(ctx context.Context, courseID, employeeID uuid.UUID) (EnrollResult, error) {
	ok, err := u.repo.ExistsByID(ctx, courseID)
	if err != nil {
		return EnrollResult{}, internal("course.enroll", err)
	}
	if !ok {
		return EnrollResult{}, ErrCourseNotFound
	}
	emp, err := u.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return EnrollResult{}, ErrEmployeeNotFound
		}
		return EnrollResult{}, internal("course.enroll", err)
	}

	en := course.Enrollment{CourseID: courseID, EmployeeID: employeeID}
	if emp.PositionID.Valid {
		res, err := u.gaps.Analyze(ctx, employeeID, emp.PositionID.UUID)
		switch {
		case err == nil:
			en.RAGStatus = res.RAG
		case errors.Is(err, ErrPositionNotFound):
		default:
			return EnrollResult{}, err
		}
	}

	saved, err := u.repo.Enroll(ctx, en)
	if err != nil {
		if isForeignKeyViolation(err) {
			return EnrollResult{}, ErrEmployeeNotFound
		}
		return EnrollResult{}, internal("course.enroll", err)
	}
	out := EnrollResult{Enrollment: saved}

	if !u.flags.EnableBatchProcessing {
		if err := u.content.MarkPending(ctx, courseID, employeeID); err != nil {
			return EnrollResult{}, internal("course.enroll", err)
		}
		return out, nil
	}
	job, _, err := u.personal.Enqueue(ctx, GenerateInput{CourseID: courseID, EmployeeID: employeeID})
	if err != nil {
		u.log.Warn("enqueue after enrollment failed", "course_id", courseID, "employee_id", employeeID, "error", err)
		return out, nil
	}
	out.Job = &job
	return out, nil
}

func (u *Courses) Contents(ctx context.Context, courseID uuid.UUID) ([]course.GeneratedContent, error) {
	if _, err := u.Get(ctx, courseID); err != nil {
		return nil, err
	}
	out, err := u.content.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, internal("course.contents", err)
	}
	return out, nil
}

func (u *Courses) enrolled(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	ok, err := u.repo.ExistsByID(ctx, courseID)
	if err != nil {
		return nil, internal("course.regenerate", err)
	}
	if !ok {
		return nil, ErrCourseNotFound
	}
	ids, err := u.repo.ListEnrolledEmployeeIDs(ctx, courseID)
	if err != nil {
		return nil, internal("course.regenerate", err)
	}
	return ids, nil
}

// Regenerate queues a generation for every enrolled employee. Employees that
// already have an active job are counted as skipped.
func (u *Courses) Regenerate(ctx context.Context, courseID uuid.UUID) (RegenerateSummary, error) {
	if !u.flags.EnableBatchProcessing {
		return RegenerateSummary{}, ErrBatchDisabled
	}
	ids, err := u.enrolled(ctx, courseID)
	if err != nil {
		return RegenerateSummary{}, err
	}

	sum := RegenerateSummary{Enrolled: len(ids)}
	for _, id := range ids {
		_, created, err := u.personal.Enqueue(ctx, GenerateInput{CourseID: courseID, EmployeeID: id})
		switch {
		case err != nil:
			sum.Failed++
			sum.Errors = append(sum.Errors, id.String()+": "+err.Error())
		case created:
			sum.Queued++
		default:
			sum.Skipped++
		}
	}
	u.log.Info("course regeneration queued", "course_id", courseID, "queued", sum.Queued, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

// RegenerateInline generates content for every enrolled employee right away
// through a bounded pool. One failure does not stop the others.
func (u *Courses) RegenerateInline(ctx context.Context, courseID uuid.UUID, workers int) (RegenerateSummary, error) {
	ids, err := u.enrolled(ctx, courseID)
	if err != nil {
		return RegenerateSummary{}, err
	}

	tasks := make([]worker.Task, 0, len(ids))
	for _, id := range ids {
		employeeID := id
		tasks = append(tasks, worker.Task{
			Key: employeeID.String(),
			Run: func(ctx context.Context) error {
				_, err := u.personal.Generate(ctx, GenerateInput{CourseID: courseID, EmployeeID: employeeID})
				return err
			},
		})
	}

	sum := RegenerateSummary{Enrolled: len(ids)}
	for _, res := range worker.RunAll(ctx, workers, tasks) {
		if res.Err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, res.Key+": "+res.Err.Error())
			continue
		}
		sum.Updated++
	}
	u.log.Info("course regenerated", "course_id", courseID, "updated", sum.Updated, "failed", sum.Failed)
	return sum, nil
}
