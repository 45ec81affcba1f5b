package usecase

import (
	"context"
	"testing"

	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/normalize"
	"learnfinity/internal/domain/taxonomy"
	"learnfinity/internal/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type normalizationFixture struct {
	uc        *Normalization
	taxRepo   *fakeTaxonomyRepo
	skills    *fakeSkills
	logs      *fakeLogs
	events    *fakePublisher
	cache     *fakeCache
	employee  uuid.UUID
	kubeID    uuid.UUID
	postgres  uuid.UUID
}

func newNormalizationFixture() *normalizationFixture {
	f := &normalizationFixture{
		employee: uuid.New(),
		kubeID:   uuid.New(),
		postgres: uuid.New(),
		skills:   &fakeSkills{},
		logs:     &fakeLogs{},
		events:   &fakePublisher{},
		cache:    newFakeCache(),
	}
	f.taxRepo = &fakeTaxonomyRepo{skills: []taxonomy.Skill{
		{ID: f.kubeID, Name: "Kubernetes", Keywords: []string{"k8s", "kubectl"}},
		{ID: f.postgres, Name: "PostgreSQL", Keywords: []string{"postgres", "psql"}},
	}}
	tax := NewTaxonomyUsecase(f.taxRepo, f.cache, nil)
	f.uc = NewNormalizationUsecase(tax, f.taxRepo, f.skills, newFakeEmployees(employee.Employee{ID: f.employee}), f.logs, f.events, nil)
	return f
}

func TestNormalization_Normalize(t *testing.T) {
	f := newNormalizationFixture()

	res, err := f.uc.Normalize(context.Background(), "  kubernetes ")
	require.NoError(t, err)
	assert.Equal(t, f.kubeID, res.SkillID)
	assert.Equal(t, normalize.MethodExact, res.Method)

	res, err = f.uc.Normalize(context.Background(), "Underwater basket weaving")
	require.NoError(t, err, "no match is not an error")
	assert.False(t, res.Matched())
	assert.Equal(t, normalize.MethodNone, res.Method)

	assert.Len(t, f.logs.entries, 2)
	assert.Equal(t, 1, f.taxRepo.listCalls, "second lookup should come from the cache")

	_, err = f.uc.Normalize(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNormalization_NormalizeEmployee(t *testing.T) {
	f := newNormalizationFixture()
	f.skills.records = []employee.SkillRecord{
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "k8s", Proficiency: 3},
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "Cobol", Proficiency: 2},
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "postgres", Proficiency: 4, TaxonomySkillID: uuid.NullUUID{UUID: f.postgres, Valid: true}},
	}

	sum, err := f.uc.NormalizeEmployee(context.Background(), f.employee)
	require.NoError(t, err)
	assert.Equal(t, NormalizeSummary{Processed: 2, Mapped: 1, Unmapped: 1}, sum)

	rec, err := f.skills.FindByID(context.Background(), f.skills.records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, f.kubeID, rec.TaxonomySkillID.UUID)

	types := f.events.types()
	assert.Equal(t, []events.Type{events.TypeSkillNormalized, events.TypeSkillNormalized}, types)

	_, err = f.uc.NormalizeEmployee(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestNormalization_MergesIntoHeldSkill(t *testing.T) {
	f := newNormalizationFixture()
	ctx := context.Background()
	held := uuid.New()
	f.skills.records = []employee.SkillRecord{
		{ID: held, EmployeeID: f.employee, RawText: "Kubernetes", Proficiency: 3, Source: employee.SourceSelfReported, TaxonomySkillID: uuid.NullUUID{UUID: f.kubeID, Valid: true}},
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "k8s", Proficiency: 5, Verified: true, Source: employee.SourceAssessment},
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "kubectl", Proficiency: 1, Source: employee.SourceCV},
	}

	sum, err := f.uc.NormalizeEmployee(ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, NormalizeSummary{Processed: 2, Mapped: 2}, sum)

	kube := f.skills.mapped(f.employee, f.kubeID)
	require.Len(t, kube, 1)
	assert.Equal(t, held, kube[0].ID)
	assert.Equal(t, 5, kube[0].Proficiency)
	assert.True(t, kube[0].Verified)
	assert.Equal(t, employee.SourceAssessment, kube[0].Source)
	for _, e := range f.logs.entries {
		assert.Equal(t, held, e.EmployeeSkillID.UUID, "log entries follow the surviving record")
	}

	pgHeld := uuid.New()
	stray := uuid.New()
	f.skills.records = append(f.skills.records,
		employee.SkillRecord{ID: pgHeld, EmployeeID: f.employee, RawText: "PostgreSQL", Proficiency: 4, TaxonomySkillID: uuid.NullUUID{UUID: f.postgres, Valid: true}},
		employee.SkillRecord{ID: stray, EmployeeID: f.employee, RawText: "pg admin", Proficiency: 2},
	)
	rec, err := f.uc.MapManually(ctx, stray, f.postgres)
	require.NoError(t, err)
	assert.Equal(t, pgHeld, rec.ID)
	assert.Equal(t, 4, rec.Proficiency)
	assert.Equal(t, "PostgreSQL", rec.SkillName)
	assert.Len(t, f.skills.mapped(f.employee, f.postgres), 1)
	_, err = f.skills.FindByID(ctx, stray)
	assert.Error(t, err)
}

func TestNormalization_RetriesConcurrentMapping(t *testing.T) {
	f := newNormalizationFixture()
	held, stray := uuid.New(), uuid.New()
	f.skills.records = []employee.SkillRecord{
		{ID: held, EmployeeID: f.employee, RawText: "Kubernetes", Proficiency: 2, TaxonomySkillID: uuid.NullUUID{UUID: f.kubeID, Valid: true}},
		{ID: stray, EmployeeID: f.employee, RawText: "k8s", Proficiency: 4},
	}
	f.skills.assignErr = &pgconn.PgError{Code: "23505"}

	rec, err := f.uc.MapManually(context.Background(), stray, f.kubeID)
	require.NoError(t, err)
	if f.skills.assigns != 2 {
		t.Fatalf("expected one retry after the unique violation, got %d calls", f.skills.assigns)
	}
	assert.Equal(t, held, rec.ID)
	assert.Equal(t, 4, rec.Proficiency)
	assert.Len(t, f.skills.mapped(f.employee, f.kubeID), 1)
}

func TestNormalization_MapManually(t *testing.T) {
	f := newNormalizationFixture()
	recID := uuid.New()
	f.skills.records = []employee.SkillRecord{{ID: recID, EmployeeID: f.employee, RawText: "Cobol", Proficiency: 2}}

	unmapped, err := f.uc.ListUnmapped(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, unmapped, 1)

	rec, err := f.uc.MapManually(context.Background(), recID, f.postgres)
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL", rec.SkillName)
	require.Len(t, f.logs.entries, 1)
	assert.Equal(t, normalize.MethodManual, f.logs.entries[0].Method)

	_, err = f.uc.MapManually(context.Background(), recID, uuid.New())
	assert.ErrorIs(t, err, ErrSkillNotFound)
	_, err = f.uc.MapManually(context.Background(), uuid.New(), f.postgres)
	assert.ErrorIs(t, err, ErrSkillRecordNotFound)
}
