package seeder

import (
	"context"

	"learnfinity/internal/database"
)

// DemoSeeder adds one position, course and employee so the personalization
// flow can be tried end to end.
type DemoSeeder struct{}

func (DemoSeeder) Name() string { return "demo" }

func (DemoSeeder) Columns() map[string][]string {
	return map[string][]string{
		"positions":                   {"id", "title", "department", "description"},
		"position_skill_requirements": {"position_id", "taxonomy_skill_id", "importance", "required_proficiency"},
		"courses":                     {"id", "title", "description", "level"},
		"employees":                   {"id", "name", "email", "job_title", "department", "experience_level", "position_id", "cv_data", "cv_processed_at"},
		"employee_skills":             {"employee_id", "taxonomy_skill_id", "raw_text", "proficiency", "source"},
	}
}

func (DemoSeeder) Run(ctx context.Context, db database.DB) error {
	return database.WithTx(ctx, db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO positions (title, department, description)
			 VALUES ('Platform Engineer', 'Engineering', 'Runs the container platform')
			 ON CONFLICT ((lower(title))) DO NOTHING`,
		); err != nil {
			return err
		}

		requirements := []struct {
			Skill       string
			Importance  int
			Proficiency int
		}{
			{Skill: "Kubernetes", Importance: 5, Proficiency: 4},
			{Skill: "Go", Importance: 4, Proficiency: 3},
			{Skill: "PostgreSQL", Importance: 3, Proficiency: 3},
		}
		for _, r := range requirements {
			if _, err := tx.Exec(ctx,
				`INSERT INTO position_skill_requirements (position_id, taxonomy_skill_id, importance, required_proficiency)
				 SELECT p.id, s.id, $2, $3
				 FROM positions p, taxonomy_skills s
				 WHERE lower(p.title) = 'platform engineer' AND lower(s.name) = lower($1)
				 ON CONFLICT (position_id, taxonomy_skill_id) DO NOTHING`,
				r.Skill, r.Importance, r.Proficiency,
			); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO courses (title, description, level)
			 SELECT 'Cloud Native Foundations', 'Containers, orchestration and operating services in production', 'intermediate'
			 WHERE NOT EXISTS (SELECT 1 FROM courses WHERE lower(title) = 'cloud native foundations')`,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO employees (name, email, job_title, department, experience_level, position_id, cv_data, cv_processed_at)
			 SELECT 'Demo Learner', 'demo.learner@learnfinity.local', 'Backend Engineer', 'Engineering', 'mid', p.id,
			        '{"summary": "Backend engineer moving into platform work", "skills": ["Go", "Docker"]}'::jsonb, now()
			 FROM positions p WHERE lower(p.title) = 'platform engineer'
			 ON CONFLICT ((lower(email))) DO NOTHING`,
		); err != nil {
			return err
		}

		skills := []struct {
			Skill       string
			Proficiency int
			Source      string
		}{
			{Skill: "Go", Proficiency: 3, Source: "cv"},
			{Skill: "Docker", Proficiency: 2, Source: "self_reported"},
			{Skill: "Kubernetes", Proficiency: 1, Source: "self_reported"},
		}
		for _, s := range skills {
			if _, err := tx.Exec(ctx,
				`INSERT INTO employee_skills (employee_id, taxonomy_skill_id, raw_text, proficiency, source)
				 SELECT e.id, ts.id, ts.name, $2, $3
				 FROM employees e, taxonomy_skills ts
				 WHERE lower(e.email) = 'demo.learner@learnfinity.local' AND lower(ts.name) = lower($1)
				   AND NOT EXISTS (
				     SELECT 1 FROM employee_skills es WHERE es.employee_id = e.id AND es.taxonomy_skill_id = ts.id
				   )`,
				s.Skill, s.Proficiency, s.Source,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
