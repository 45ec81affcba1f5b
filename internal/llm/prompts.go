package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"learnfinity/internal/domain/gap"
)

const SystemPrompt = "You are an expert corporate learning designer. Always respond with valid JSON and nothing else."

const cvSystemPrompt = "You extract structured data from CVs. Always respond with valid JSON and nothing else."

type PersonalizationInput struct {
	CourseTitle       string
	CourseDescription string
	EmployeeName      string
	JobTitle          string
	Department        string
	ExperienceLevel   string
	Profile           json.RawMessage
	Gaps              []gap.Gap
}

// PersonalizationMessages builds the conversation for one course and employee.
func PersonalizationMessages(in PersonalizationInput) []Message {
	var b strings.Builder

	b.WriteString("Personalize the following course for one employee.\n\n")
	fmt.Fprintf(&b, "Course title: %s\n", in.CourseTitle)
	if in.CourseDescription != "" {
		fmt.Fprintf(&b, "Course description: %s\n", in.CourseDescription)
	}

	b.WriteString("\nEmployee:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orUnknown(in.EmployeeName))
	fmt.Fprintf(&b, "- Role: %s\n", orUnknown(in.JobTitle))
	fmt.Fprintf(&b, "- Department: %s\n", orUnknown(in.Department))
	fmt.Fprintf(&b, "- Experience level: %s\n", orUnknown(in.ExperienceLevel))
	if len(in.Profile) > 0 {
		fmt.Fprintf(&b, "\nProfile extracted from the employee's CV:\n%s\n", string(in.Profile))
	}

	if len(in.Gaps) == 0 {
		b.WriteString("\nNo skill gaps were identified; deepen and reinforce the course topics.\n")
	} else {
		b.WriteString("\nSkill gaps, most important first (current/required on a 1-5 scale):\n")
		for _, g := range in.Gaps {
			fmt.Fprintf(&b, "- %s: %d/%d (importance %d)\n", g.SkillName, g.CurrentProficiency, g.RequiredProficiency, g.Importance)
		}
	}

	b.WriteString(`
Return a JSON object with this shape:
{
  "title": string,
  "summary": string,
  "modules": [
    {
      "title": string,
      "description": string,
      "objectives": [string],
      "focus_skills": [string],
      "estimated_minutes": number,
      "lessons": [
        {"title": string, "type": "video" | "reading" | "interactive" | "exercise", "content": string, "duration_minutes": number}
      ]
    }
  ]
}
Order modules so the largest gaps are addressed first. Include at least one module.`)

	return []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

type PathCourse struct {
	ID          string
	Title       string
	Description string
	Level       string
}

type LearningPathInput struct {
	EmployeeName    string
	JobTitle        string
	Department      string
	ExperienceLevel string
	Profile         json.RawMessage
	Gaps            []gap.Gap
	// Catalog courses, best fit first.
	Courses  []PathCourse
	MaxSteps int
}

// LearningPathMessages asks for a sequenced plan of courses for one employee.
func LearningPathMessages(in LearningPathInput) []Message {
	var b strings.Builder

	b.WriteString("Create a personalized learning path for one employee.\n\n")
	b.WriteString("Employee:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orUnknown(in.EmployeeName))
	fmt.Fprintf(&b, "- Role: %s\n", orUnknown(in.JobTitle))
	fmt.Fprintf(&b, "- Department: %s\n", orUnknown(in.Department))
	fmt.Fprintf(&b, "- Experience level: %s\n", orUnknown(in.ExperienceLevel))
	if len(in.Profile) > 0 {
		fmt.Fprintf(&b, "\nProfile extracted from the employee's CV:\n%s\n", string(in.Profile))
	}

	if len(in.Gaps) == 0 {
		b.WriteString("\nNo skill gaps were identified; plan for growth in the current role.\n")
	} else {
		b.WriteString("\nSkill gaps, most important first (current/required on a 1-5 scale):\n")
		for _, g := range in.Gaps {
			fmt.Fprintf(&b, "- %s: %d/%d (importance %d)\n", g.SkillName, g.CurrentProficiency, g.RequiredProficiency, g.Importance)
		}
	}

	if len(in.Courses) > 0 {
		b.WriteString("\nAvailable courses, best fit first:\n")
		for _, c := range in.Courses {
			fmt.Fprintf(&b, "- id %s: %s", c.ID, c.Title)
			if c.Level != "" {
				fmt.Fprintf(&b, " [%s]", c.Level)
			}
			if c.Description != "" {
				fmt.Fprintf(&b, " - %s", c.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("Prefer these courses and set course_id to their id. Only suggest a course outside this list when none covers a gap, and leave course_id out for it.\n")
	}

	maxSteps := in.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 5
	}
	fmt.Fprintf(&b, `
Return a JSON object with this shape:
{
  "summary": string,
  "steps": [
    {
      "order": number,
      "course_id": string,
      "title": string,
      "description": string,
      "objectives": [string],
      "estimated_hours": number,
      "content_type": "video" | "reading" | "interactive" | "mixed",
      "relevance": string,
      "focus_skills": [string]
    }
  ]
}
Include 3 to %d steps (fewer only when fewer courses exist), ordered so each builds on the previous one and the largest gaps come first. "relevance" explains how the step supports the employee's role and career.`, maxSteps)

	return []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

// CVMessages asks the model for a structured profile of a plain-text CV.
func CVMessages(cvText string) []Message {
	prompt := `Extract the employee profile from the CV below.

Return a JSON object with this shape:
{
  "summary": string,
  "experience_years": number,
  "roles": [string],
  "skills": [{"name": string, "proficiency": number}]
}
Proficiency is 1 (novice) to 5 (expert), estimated from the CV.

CV:
` + cvText

	return []Message{
		{Role: RoleSystem, Content: cvSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
