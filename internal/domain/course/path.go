package course

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"learnfinity/internal/domain/gap"
	"learnfinity/internal/domain/normalize"

	"github.com/google/uuid"
)

// MaxPathSteps bounds how many courses a learning path sequences.
const MaxPathSteps = 5

var ErrInvalidPath = errors.New("invalid learning path")

// LearningPath is the stored, sequenced course plan for one employee.
type LearningPath struct {
	ID               uuid.UUID
	EmployeeID       uuid.UUID
	Path             PathBody
	RawResponse      string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PathBody is the shape the model must return.
type PathBody struct {
	Summary string     `json:"summary"`
	Steps   []PathStep `json:"steps"`
}

type PathStep struct {
	Order int `json:"order"`
	// Set when the step is a course from the catalog.
	CourseID       *uuid.UUID `json:"course_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Objectives     []string   `json:"objectives"`
	EstimatedHours float64    `json:"estimated_hours"`
	ContentType    string     `json:"content_type"`
	Relevance      string     `json:"relevance"`
	FocusSkills    []string   `json:"focus_skills"`
}

// UnmarshalJSON accepts a missing, empty or malformed course_id as no course.
func (s *PathStep) UnmarshalJSON(data []byte) error {
	type plain PathStep
	var aux struct {
		plain
		CourseID any `json:"course_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = PathStep(aux.plain)
	s.CourseID = nil
	if str, ok := aux.CourseID.(string); ok {
		if id, err := uuid.Parse(strings.TrimSpace(str)); err == nil && id != uuid.Nil {
			s.CourseID = &id
		}
	}
	return nil
}

func (b PathBody) Validate() error {
	if len(b.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidPath)
	}
	if len(b.Steps) > MaxPathSteps {
		return fmt.Errorf("%w: %d steps, at most %d allowed", ErrInvalidPath, len(b.Steps), MaxPathSteps)
	}
	for i, s := range b.Steps {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: step %d has no title", ErrInvalidPath, i+1)
		}
		if s.EstimatedHours < 0 {
			return fmt.Errorf("%w: step %d has a negative duration", ErrInvalidPath, i+1)
		}
	}
	return nil
}

// Sequenced orders the steps by their stated order, keeping the given order
// for ties and unnumbered steps, and renumbers them from 1. Course ids that
// known rejects are cleared so the step stands as a free-form suggestion.
func (b PathBody) Sequenced(known func(uuid.UUID) bool) PathBody {
	steps := slices.Clone(b.Steps)
	rank := func(s PathStep) int {
		if s.Order <= 0 {
			return MaxPathSteps + 1
		}
		return s.Order
	}
	slices.SortStableFunc(steps, func(a, b PathStep) int { return cmp.Compare(rank(a), rank(b)) })
	for i := range steps {
		steps[i].Order = i + 1
		if steps[i].CourseID != nil && (known == nil || !known(*steps[i].CourseID)) {
			steps[i].CourseID = nil
		}
	}
	return PathBody{Summary: b.Summary, Steps: steps}
}

// TotalHours sums the estimated duration of every step.
func (b PathBody) TotalHours() float64 {
	var total float64
	for _, s := range b.Steps {
		total += s.EstimatedHours
	}
	return total
}

// RankCourses orders the catalog by how much of the gap weight each course
// covers and returns at most limit courses. A gap counts when its skill
// name appears as whole words in the course title (double weight) or
// description, weighted by importance times deficit. Courses covering no
// gap follow in catalog order.
func RankCourses(courses []Course, gaps []gap.Gap, limit int) []Course {
	type scored struct {
		c     Course
		score int
	}
	ranked := make([]scored, 0, len(courses))
	for _, c := range courses {
		s := 0
		for _, g := range gaps {
			w := g.Importance * g.Deficit()
			if w <= 0 || strings.TrimSpace(g.SkillName) == "" {
				continue
			}
			switch {
			case normalize.ContainsPhrase(c.Title, g.SkillName):
				s += 2 * w
			case normalize.ContainsPhrase(c.Description, g.SkillName):
				s += w
			}
		}
		ranked = append(ranked, scored{c: c, score: s})
	}
	slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]Course, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, r.c)
	}
	return out
}
