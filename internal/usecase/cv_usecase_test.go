package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/normalize"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCV_Ingest(t *testing.T) {
	f := newNormalizationFixture()
	employees := newFakeEmployees(employee.Employee{ID: f.employee, Name: "Andi"})
	f.skills.records = []employee.SkillRecord{
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "PostgreSQL", Proficiency: 4, TaxonomySkillID: uuid.NullUUID{UUID: f.postgres, Valid: true}},
	}
	completer := &fakeCompleter{replies: []string{"```json\n" + `{
		"summary": "Platform engineer",
		"experience_years": 6,
		"skills": [
			{"name": "Kubernetes", "proficiency": 4.4},
			"Haskell",
			{"name": "postgresql", "proficiency": 5},
			{"name": "kubernetes", "proficiency": 2},
			{"name": "  "}
		]
	}` + "\n```"}}
	uc := NewCVUsecase(employees, f.skills, f.uc, completer, nil)

	res, err := uc.Ingest(context.Background(), f.employee, "Six years of running clusters...")
	require.NoError(t, err)

	emp, _ := employees.FindByID(context.Background(), f.employee)
	assert.True(t, emp.HasProfile())
	assert.True(t, json.Valid(emp.CVData))

	require.Len(t, res.Skills, 3)
	byName := map[string]CVSkillOutcome{}
	for _, s := range res.Skills {
		byName[s.Name] = s
	}

	kube := byName["Kubernetes"]
	assert.Equal(t, 4, kube.Proficiency)
	assert.Equal(t, normalize.MethodExact, kube.Method)
	require.NotNil(t, kube.SkillID)
	assert.Equal(t, f.kubeID, *kube.SkillID)

	haskell := byName["Haskell"]
	assert.Equal(t, defaultCVProficiency, haskell.Proficiency)
	assert.Nil(t, haskell.SkillID)

	pg := byName["postgresql"]
	assert.True(t, pg.Existing)

	stored, _ := f.skills.ListByEmployee(context.Background(), f.employee)
	assert.Len(t, stored, 3)
	for _, r := range stored {
		switch r.RawText {
		case "Kubernetes":
			assert.Equal(t, employee.SourceCV, r.Source)
		case "PostgreSQL":
			assert.Equal(t, 5, r.Proficiency, "a stronger CV claim lifts the held record")
			assert.Equal(t, employee.SourceCV, r.Source)
		}
	}
}

func TestCV_Ingest_JoinsHeldSkills(t *testing.T) {
	f := newNormalizationFixture()
	employees := newFakeEmployees(employee.Employee{ID: f.employee})
	held := uuid.New()
	f.skills.records = []employee.SkillRecord{
		{ID: held, EmployeeID: f.employee, RawText: "Kubernetes", Proficiency: 2, Source: employee.SourceSelfReported, TaxonomySkillID: uuid.NullUUID{UUID: f.kubeID, Valid: true}},
		{ID: uuid.New(), EmployeeID: f.employee, RawText: "PostgreSQL", Proficiency: 4, Source: employee.SourceAssessment, TaxonomySkillID: uuid.NullUUID{UUID: f.postgres, Valid: true}},
	}
	completer := &fakeCompleter{replies: []string{`{"skills": [{"name": "k8s", "proficiency": 4}, {"name": "PostgreSQL", "proficiency": 2}]}`}}
	uc := NewCVUsecase(employees, f.skills, f.uc, completer, nil)

	res, err := uc.Ingest(context.Background(), f.employee, "Ran production clusters")
	require.NoError(t, err)
	require.Len(t, res.Skills, 2)

	k8s := res.Skills[0]
	assert.True(t, k8s.Existing)
	assert.Equal(t, held, k8s.RecordID)

	kube := f.skills.mapped(f.employee, f.kubeID)
	require.Len(t, kube, 1)
	assert.Equal(t, held, kube[0].ID)
	assert.Equal(t, 4, kube[0].Proficiency)
	assert.Equal(t, employee.SourceCV, kube[0].Source)

	pg := f.skills.mapped(f.employee, f.postgres)
	require.Len(t, pg, 1)
	assert.Equal(t, 4, pg[0].Proficiency, "a weaker CV claim leaves the held record alone")
	assert.Equal(t, employee.SourceAssessment, pg[0].Source)
}

func TestCV_Ingest_Errors(t *testing.T) {
	f := newNormalizationFixture()
	employees := newFakeEmployees(employee.Employee{ID: f.employee})
	completer := &fakeCompleter{replies: []string{"I could not read that CV."}}
	uc := NewCVUsecase(employees, f.skills, f.uc, completer, nil)

	_, err := uc.Ingest(context.Background(), f.employee, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Ingest(context.Background(), uuid.New(), "cv")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = uc.Ingest(context.Background(), f.employee, "cv")
	assert.ErrorIs(t, err, ErrInvalidLLMResponse)
	emp, _ := employees.FindByID(context.Background(), f.employee)
	assert.False(t, emp.HasProfile(), "a rejected reply must not be stored as the profile")
}
