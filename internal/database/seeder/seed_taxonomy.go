package seeder

import (
	"context"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/taxonomy"
	"learnfinity/internal/repository"
)

// TaxonomySeeder loads a starter taxonomy through the regular import path so
// re-running it only refreshes keywords.
type TaxonomySeeder struct {
	Items []taxonomy.ImportItem
}

func (TaxonomySeeder) Name() string { return "taxonomy" }

func (TaxonomySeeder) Columns() map[string][]string {
	return map[string][]string{
		"taxonomy_categories":    {"id", "name"},
		"taxonomy_subcategories": {"id", "category_id", "name"},
		"taxonomy_groups":        {"id", "subcategory_id", "name"},
		"taxonomy_skills":        {"id", "group_id", "name", "description", "keywords"},
	}
}

func (s TaxonomySeeder) Run(ctx context.Context, db database.DB) error {
	items := s.Items
	if len(items) == 0 {
		items = starterTaxonomy
	}
	normalized := make([]taxonomy.ImportItem, 0, len(items))
	for _, it := range items {
		n, err := it.Normalized()
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	_, err := repository.NewPostgresTaxonomyRepository(db).Import(ctx, normalized)
	return err
}

var starterTaxonomy = []taxonomy.ImportItem{
	{Category: "Technology", Subcategory: "Programming", Group: "Languages", Skill: "Go", Keywords: []string{"golang"}},
	{Category: "Technology", Subcategory: "Programming", Group: "Languages", Skill: "Python", Keywords: []string{"py", "python3"}},
	{Category: "Technology", Subcategory: "Programming", Group: "Languages", Skill: "TypeScript", Keywords: []string{"ts"}},
	{Category: "Technology", Subcategory: "Programming", Group: "Languages", Skill: "JavaScript", Keywords: []string{"js", "ecmascript"}},
	{Category: "Technology", Subcategory: "Data", Group: "Databases", Skill: "PostgreSQL", Keywords: []string{"postgres", "psql"}},
	{Category: "Technology", Subcategory: "Data", Group: "Databases", Skill: "Redis"},
	{Category: "Technology", Subcategory: "Data", Group: "Analytics", Skill: "SQL", Keywords: []string{"structured query language"}},
	{Category: "Technology", Subcategory: "Infrastructure", Group: "Containers", Skill: "Docker", Keywords: []string{"containers", "dockerfile"}},
	{Category: "Technology", Subcategory: "Infrastructure", Group: "Containers", Skill: "Kubernetes", Keywords: []string{"k8s", "kubectl"}},
	{Category: "Technology", Subcategory: "Infrastructure", Group: "Cloud", Skill: "AWS", Keywords: []string{"amazon web services"}},
	{Category: "Technology", Subcategory: "Infrastructure", Group: "Cloud", Skill: "GCP", Keywords: []string{"google cloud"}},
	{Category: "Business", Subcategory: "Leadership", Group: "People", Skill: "Coaching", Keywords: []string{"mentoring"}},
	{Category: "Business", Subcategory: "Leadership", Group: "People", Skill: "Stakeholder Management", Keywords: []string{"stakeholders"}},
	{Category: "Business", Subcategory: "Delivery", Group: "Methods", Skill: "Agile", Keywords: []string{"scrum", "kanban"}},
}
