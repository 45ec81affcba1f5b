package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSkillNormalized           Type = "skill.normalized"
	TypePersonalizationGenerating Type = "personalization.generating"
	TypePersonalizationCompleted  Type = "personalization.completed"
	TypePersonalizationFailed     Type = "personalization.failed"
	TypeLearningPathGenerated     Type = "learning_path.generated"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(t Type, data any) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: time.Now().UTC(), Data: data}
}

type SkillNormalized struct {
	EmployeeID    uuid.UUID  `json:"employee_id"`
	SkillRecordID uuid.UUID  `json:"skill_record_id"`
	RawText       string     `json:"raw_text"`
	SkillID       *uuid.UUID `json:"skill_id"`
	Method        string     `json:"method"`
	Confidence    float64    `json:"confidence"`
}

type Personalization struct {
	CourseID   uuid.UUID `json:"course_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Status     string    `json:"status"`
	Model      string    `json:"model,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type LearningPath struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Steps      int       `json:"steps"`
	Model      string    `json:"model,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout delivers each event to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
