package course

import (
	"encoding/json"
	"errors"
	"testing"

	"learnfinity/internal/domain/gap"

	"github.com/google/uuid"
)

func TestPathBody_Validate(t *testing.T) {
	if err := (PathBody{}).Validate(); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for no steps, got %v", err)
	}

	tooMany := PathBody{}
	for i := 0; i < MaxPathSteps+1; i++ {
		tooMany.Steps = append(tooMany.Steps, PathStep{Title: "Step"})
	}
	if err := tooMany.Validate(); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for %d steps, got %v", len(tooMany.Steps), err)
	}

	if err := (PathBody{Steps: []PathStep{{Title: " "}}}).Validate(); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for untitled step, got %v", err)
	}
	if err := (PathBody{Steps: []PathStep{{Title: "Go", EstimatedHours: -1}}}).Validate(); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for negative hours, got %v", err)
	}
	if err := (PathBody{Steps: []PathStep{{Title: "Go", EstimatedHours: 6}}}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestPathBody_Sequenced(t *testing.T) {
	known, stray := uuid.New(), uuid.New()
	body := PathBody{Steps: []PathStep{
		{Title: "Advanced", Order: 3, CourseID: &known},
		{Title: "Loose"},
		{Title: "Basics", Order: 1, CourseID: &stray},
		{Title: "Middle", Order: 2},
	}}

	got := body.Sequenced(func(id uuid.UUID) bool { return id == known })

	want := []string{"Basics", "Middle", "Advanced", "Loose"}
	for i, s := range got.Steps {
		if s.Title != want[i] || s.Order != i+1 {
			t.Fatalf("step %d: got %q order %d, want %q order %d", i, s.Title, s.Order, want[i], i+1)
		}
	}
	if got.Steps[0].CourseID != nil {
		t.Fatalf("unknown course id should be cleared")
	}
	if got.Steps[2].CourseID == nil || *got.Steps[2].CourseID != known {
		t.Fatalf("known course id should be kept")
	}
	if body.Steps[0].Order != 3 {
		t.Fatalf("Sequenced must not modify the receiver")
	}
}

func TestPathStep_UnmarshalCourseID(t *testing.T) {
	id := uuid.New()
	var body PathBody
	raw := `{"steps":[
		{"title":"A","course_id":"` + id.String() + `","estimated_hours":2},
		{"title":"B","course_id":""},
		{"title":"C","course_id":"course-7"},
		{"title":"D","course_id":12},
		{"title":"E"}
	]}`
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Steps[0].CourseID == nil || *body.Steps[0].CourseID != id || body.Steps[0].EstimatedHours != 2 {
		t.Fatalf("first step should keep its fields, got %+v", body.Steps[0])
	}
	for _, s := range body.Steps[1:] {
		if s.CourseID != nil {
			t.Fatalf("step %q should have no course, got %v", s.Title, *s.CourseID)
		}
	}
}

func TestPathBody_TotalHours(t *testing.T) {
	b := PathBody{Steps: []PathStep{{EstimatedHours: 1.5}, {EstimatedHours: 4}}}
	if got := b.TotalHours(); got != 5.5 {
		t.Fatalf("expected 5.5 hours, got %v", got)
	}
}

func TestRankCourses(t *testing.T) {
	catalog := []Course{
		{Title: "Team Leadership"},
		{Title: "Cloud Basics", Description: "Containers and Kubernetes for beginners"},
		{Title: "Kubernetes in Production"},
		{Title: "Goals and Planning"},
	}
	gaps := []gap.Gap{
		{SkillName: "Kubernetes", Importance: 5, RequiredProficiency: 4, CurrentProficiency: 1},
		{SkillName: "Go", Importance: 4, RequiredProficiency: 3, CurrentProficiency: 1},
		{SkillName: "Leadership", Importance: 2, RequiredProficiency: 3, CurrentProficiency: 3},
	}

	got := RankCourses(catalog, gaps, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(got))
	}
	want := []string{"Kubernetes in Production", "Cloud Basics", "Team Leadership"}
	for i, c := range got {
		if c.Title != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, c.Title, want[i])
		}
	}

	if all := RankCourses(catalog, nil, 0); len(all) != len(catalog) || all[0].Title != "Team Leadership" {
		t.Fatalf("without gaps the catalog order should hold, got %+v", all)
	}
}
