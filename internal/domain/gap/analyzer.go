package gap

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type EmployeeSkill struct {
	SkillID     uuid.UUID
	Proficiency int
}

type Requirement struct {
	SkillID             uuid.UUID
	SkillName           string
	Importance          int
	RequiredProficiency int
}

type Gap struct {
	SkillID             uuid.UUID `json:"skill_id"`
	SkillName           string    `json:"skill_name"`
	Importance          int       `json:"importance"`
	RequiredProficiency int       `json:"required_proficiency"`
	CurrentProficiency  int       `json:"current_proficiency"`
}

func (g Gap) Deficit() int {
	return g.RequiredProficiency - g.CurrentProficiency
}

type RAGStatus string

const (
	RAGRed   RAGStatus = "red"
	RAGAmber RAGStatus = "amber"
	RAGGreen RAGStatus = "green"
)

type Result struct {
	Gaps      []Gap     `json:"gaps"`
	Readiness int       `json:"readiness"`
	RAG       RAGStatus `json:"rag_status"`
}

// Analyze reports every requirement the employee does not meet. A requirement
// is a gap when the skill is absent or held below the required level. Records
// without a taxonomy skill are ignored; when a skill appears more than once
// the highest proficiency counts.
//
// Gaps are ordered by importance, then deficit, both descending, then by
// skill name.
func Analyze(skills []EmployeeSkill, reqs []Requirement) Result {
	held := make(map[uuid.UUID]int, len(skills))
	for _, s := range skills {
		if s.SkillID == uuid.Nil {
			continue
		}
		p := clampInt(s.Proficiency, 0, 5)
		if cur, ok := held[s.SkillID]; !ok || p > cur {
			held[s.SkillID] = p
		}
	}

	gaps := make([]Gap, 0)
	var weightTotal, weightMet float64

	for _, r := range reqs {
		if r.SkillID == uuid.Nil {
			continue
		}
		required := clampInt(r.RequiredProficiency, 1, 5)
		importance := clampInt(r.Importance, 1, 5)
		current := held[r.SkillID]

		weightTotal += float64(importance)
		weightMet += float64(importance) * math.Min(float64(current)/float64(required), 1)

		if current >= required {
			continue
		}
		gaps = append(gaps, Gap{
			SkillID:             r.SkillID,
			SkillName:           r.SkillName,
			Importance:          importance,
			RequiredProficiency: required,
			CurrentProficiency:  current,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if a.Deficit() != b.Deficit() {
			return a.Deficit() > b.Deficit()
		}
		return strings.ToLower(a.SkillName) < strings.ToLower(b.SkillName)
	})

	readiness := 100
	if weightTotal > 0 {
		readiness = clampInt(int(math.Round(100*weightMet/weightTotal)), 0, 100)
	}

	return Result{Gaps: gaps, Readiness: readiness, RAG: StatusFor(readiness)}
}

func StatusFor(readiness int) RAGStatus {
	switch {
	case readiness >= 80:
		return RAGGreen
	case readiness >= 50:
		return RAGAmber
	default:
		return RAGRed
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
