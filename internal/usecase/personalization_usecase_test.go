package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/domain/course"
	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/gap"
	"learnfinity/internal/domain/position"
	"learnfinity/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validContent = `{"title":"Kubernetes for Backend Engineers","summary":"Close the gaps","modules":[{"title":"Pods and Deployments","lessons":[{"title":"Pods","type":"reading"}]}]}`

type personalizationFixture struct {
	uc        *Personalization
	courses   *fakeCourses
	employees *fakeEmployees
	positions *fakePositions
	content   *fakeContent
	jobs      *fakeJobs
	cache     *fakeCache
	llm       *fakeCompleter
	events    *fakePublisher

	courseID   uuid.UUID
	employeeID uuid.UUID
	kubeID     uuid.UUID
}

func newPersonalizationFixture(t *testing.T, withProfile bool) *personalizationFixture {
	t.Helper()

	f := &personalizationFixture{
		courseID:   uuid.New(),
		employeeID: uuid.New(),
		kubeID:     uuid.New(),
	}
	positionID := uuid.New()

	emp := employee.Employee{
		ID:         f.employeeID,
		Name:       "Dewi",
		JobTitle:   "Backend Engineer",
		PositionID: uuid.NullUUID{UUID: positionID, Valid: true},
	}
	if withProfile {
		emp.CVData = json.RawMessage(`{"summary":"Go developer","skills":[{"name":"Go","proficiency":4}]}`)
	}

	f.courses = newFakeCourses(course.Course{ID: f.courseID, Title: "Cloud Native Foundations", Description: "Containers and orchestration"})
	f.employees = newFakeEmployees(emp)
	f.positions = newFakePositions()
	f.positions.byID[positionID] = position.Position{ID: positionID, Title: "Platform Engineer"}
	f.positions.reqs[positionID] = []position.Requirement{
		{PositionID: positionID, SkillID: f.kubeID, SkillName: "Kubernetes", Importance: 5, RequiredProficiency: 4},
	}
	f.content = newFakeContent()
	f.jobs = &fakeJobs{}
	f.cache = newFakeCache()
	f.llm = &fakeCompleter{replies: []string{"Here is the plan:\n```json\n" + validContent + "\n```"}}
	f.events = &fakePublisher{}

	cfg := config.Config{
		LLM:      config.LLMConfig{Timeout: time.Minute, MaxRetries: 2},
		Features: config.FeatureFlags{EnableLLM: true},
	}
	gaps := NewGapUsecase(f.employees, &fakeSkills{}, f.positions)
	f.uc = NewPersonalizationUsecase(PersonalizationDeps{
		Courses:   f.courses,
		Employees: f.employees,
		Content:   f.content,
		Jobs:      f.jobs,
		Gaps:      gaps,
		LLM:       f.llm,
		Cache:     f.cache,
		Events:    f.events,
	}, cfg, nil)
	return f
}

func (f *personalizationFixture) input() GenerateInput {
	return GenerateInput{CourseID: f.courseID, EmployeeID: f.employeeID}
}

func TestPersonalization_Generate_Completed(t *testing.T) {
	f := newPersonalizationFixture(t, true)

	got, err := f.uc.Generate(context.Background(), f.input())
	require.NoError(t, err)
	assert.Equal(t, course.StatusCompleted, got.Status)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 120, got.PromptTokens)
	assert.JSONEq(t, validContent, string(got.Content))

	require.Equal(t, 1, f.llm.calls())
	prompt := f.llm.requests[0].Messages[len(f.llm.requests[0].Messages)-1].Content
	assert.Contains(t, prompt, "Kubernetes: 0/4")
	assert.Contains(t, prompt, "Cloud Native Foundations")

	assert.Equal(t, []events.Type{events.TypePersonalizationGenerating, events.TypePersonalizationCompleted}, f.events.types())
	assert.Empty(t, f.cache.locks, "lock must be released")
}

func TestPersonalization_Generate_ExplicitGapsSkipAnalysis(t *testing.T) {
	f := newPersonalizationFixture(t, true)
	in := f.input()
	in.Gaps = []gap.Gap{{SkillName: "Terraform", Importance: 3, RequiredProficiency: 3}}

	_, err := f.uc.Generate(context.Background(), in)
	require.NoError(t, err)

	prompt := f.llm.requests[0].Messages[len(f.llm.requests[0].Messages)-1].Content
	assert.Contains(t, prompt, "Terraform")
	assert.NotContains(t, prompt, "Kubernetes")
}

func TestPersonalization_Generate_MissingProfile(t *testing.T) {
	f := newPersonalizationFixture(t, false)

	_, err := f.uc.Generate(context.Background(), f.input())
	if !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
	if f.llm.calls() != 0 {
		t.Fatalf("llm must not be called without a profile")
	}
	if len(f.content.rows) != 0 {
		t.Fatalf("no content row expected, got %d", len(f.content.rows))
	}
}

func TestPersonalization_Generate_NeverCompletesWithoutJSON(t *testing.T) {
	cases := map[string]string{
		"prose":       "I'm sorry, I cannot help with that.",
		"no modules":  `{"title":"Course","modules":[]}`,
		"broken json": "```json\n{\"title\": \"x\", \"modules\": [\n```",
		"empty":       "",
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			f := newPersonalizationFixture(t, true)
			f.llm.replies = []string{reply}

			_, err := f.uc.Generate(context.Background(), f.input())
			if !errors.Is(err, ErrInvalidLLMResponse) {
				t.Fatalf("expected ErrInvalidLLMResponse, got %v", err)
			}
			var lre *LLMResponseError
			require.ErrorAs(t, err, &lre)
			assert.Equal(t, reply, lre.Raw)

			row, ferr := f.content.FindByCourseAndEmployee(context.Background(), f.courseID, f.employeeID)
			require.NoError(t, ferr)
			assert.Equal(t, course.StatusFailed, row.Status)
			assert.Equal(t, reply, row.RawResponse)
			assert.Empty(t, row.Content)
			assert.False(t, f.content.sawStatus(course.StatusCompleted))
			assert.Empty(t, f.cache.locks)
		})
	}
}

func TestPersonalization_Generate_TransportFailure(t *testing.T) {
	f := newPersonalizationFixture(t, true)
	f.llm.err = errDown

	_, err := f.uc.Generate(context.Background(), f.input())
	if !errors.Is(err, errDown) {
		t.Fatalf("expected transport error, got %v", err)
	}
	row, ferr := f.content.FindByCourseAndEmployee(context.Background(), f.courseID, f.employeeID)
	require.NoError(t, ferr)
	assert.Equal(t, course.StatusFailed, row.Status)
	assert.True(t, strings.Contains(row.Error, "connection refused"))
	assert.Equal(t, []events.Type{events.TypePersonalizationGenerating, events.TypePersonalizationFailed}, f.events.types())
}

func TestPersonalization_Generate_LockHeld(t *testing.T) {
	f := newPersonalizationFixture(t, true)
	f.cache.locks[lockKey(f.courseID, f.employeeID)] = "someone-else"

	_, err := f.uc.Generate(context.Background(), f.input())
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress, got %v", err)
	}
	if f.llm.calls() != 0 {
		t.Fatalf("llm must not be called while another generation holds the lock")
	}
	assert.Equal(t, "someone-else", f.cache.locks[lockKey(f.courseID, f.employeeID)])
}

func TestPersonalization_Generate_Errors(t *testing.T) {
	f := newPersonalizationFixture(t, true)

	_, err := f.uc.Generate(context.Background(), GenerateInput{CourseID: uuid.New(), EmployeeID: f.employeeID})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = f.uc.Generate(context.Background(), GenerateInput{CourseID: f.courseID, EmployeeID: uuid.New()})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = f.uc.Generate(context.Background(), GenerateInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.uc.flags.EnableLLM = false
	_, err = f.uc.Generate(context.Background(), f.input())
	assert.ErrorIs(t, err, ErrLLMDisabled)
}

func TestPersonalization_Enqueue_Idempotent(t *testing.T) {
	f := newPersonalizationFixture(t, true)

	first, created, err := f.uc.Enqueue(context.Background(), f.input())
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.uc.Enqueue(context.Background(), f.input())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	row, err := f.uc.Content(context.Background(), f.courseID, f.employeeID)
	require.NoError(t, err)
	assert.Equal(t, course.StatusPending, row.Status)

	_, _, err = f.uc.Enqueue(context.Background(), GenerateInput{CourseID: uuid.New(), EmployeeID: f.employeeID})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestPersonalization_ProcessJob(t *testing.T) {
	f := newPersonalizationFixture(t, true)
	job, _, err := f.uc.Enqueue(context.Background(), f.input())
	require.NoError(t, err)

	require.NoError(t, f.uc.ProcessJob(context.Background(), job))

	row, err := f.uc.Content(context.Background(), f.courseID, f.employeeID)
	require.NoError(t, err)
	assert.Equal(t, course.StatusCompleted, row.Status)

	_, err = f.uc.Content(context.Background(), f.courseID, uuid.New())
	assert.ErrorIs(t, err, ErrContentNotFound)
}
