package repository

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/taxonomy"

	"github.com/google/uuid"
)

var ErrTaxonomySkillNotFound = errors.New("taxonomy skill not found")

type ImportStats struct {
	Items                int `json:"items"`
	CategoriesCreated    int `json:"categories_created"`
	SubcategoriesCreated int `json:"subcategories_created"`
	GroupsCreated        int `json:"groups_created"`
	SkillsCreated        int `json:"skills_created"`
	SkillsUpdated        int `json:"skills_updated"`
}

type TaxonomyRepository interface {
	ListSkills(ctx context.Context) ([]taxonomy.Skill, error)
	ListTreeRows(ctx context.Context) ([]taxonomy.Row, error)
	SearchSkills(ctx context.Context, query string, limit int) ([]taxonomy.Skill, error)
	FindSkillByID(ctx context.Context, id uuid.UUID) (taxonomy.Skill, error)
	SkillExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	Import(ctx context.Context, items []taxonomy.ImportItem) (ImportStats, error)
}

type PostgresTaxonomyRepository struct {
	db database.DB
}

func NewPostgresTaxonomyRepository(db database.DB) *PostgresTaxonomyRepository {
	return &PostgresTaxonomyRepository{db: db}
}

func (r *PostgresTaxonomyRepository) ListSkills(ctx context.Context) ([]taxonomy.Skill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, group_id, name, COALESCE(description, ''), keywords
		 FROM taxonomy_skills
		 ORDER BY lower(name) ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	return scanSkills(rows)
}

func (r *PostgresTaxonomyRepository) ListTreeRows(ctx context.Context) ([]taxonomy.Row, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name, sc.id, sc.name, g.id, g.name,
		        s.id, s.group_id, s.name, COALESCE(s.description, ''), s.keywords
		 FROM taxonomy_skills s
		 JOIN taxonomy_groups g ON g.id = s.group_id
		 JOIN taxonomy_subcategories sc ON sc.id = g.subcategory_id
		 JOIN taxonomy_categories c ON c.id = sc.category_id
		 ORDER BY lower(c.name), lower(sc.name), lower(g.name), lower(s.name)`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]taxonomy.Row, 0)
	for rows.Next() {
		var tr taxonomy.Row
		if err := rows.Scan(
			&tr.CategoryID, &tr.CategoryName,
			&tr.SubcategoryID, &tr.SubcategoryName,
			&tr.GroupID, &tr.GroupName,
			&tr.Skill.ID, &tr.Skill.GroupID, &tr.Skill.Name, &tr.Skill.Description, &tr.Skill.Keywords,
		); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresTaxonomyRepository) SearchSkills(ctx context.Context, query string, limit int) ([]taxonomy.Skill, error) {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(taxonomy.CollapseSpace(query))
	rows, err := r.db.Query(ctx,
		`SELECT id, group_id, name, COALESCE(description, ''), keywords
		 FROM taxonomy_skills
		 WHERE lower(name) LIKE $1 || '%' OR $2 = ANY(keywords)
		 ORDER BY (lower(name) = $2) DESC, lower(name) ASC
		 LIMIT $3`,
		escapeLike(q), q, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanSkills(rows)
}

func (r *PostgresTaxonomyRepository) FindSkillByID(ctx context.Context, id uuid.UUID) (taxonomy.Skill, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, group_id, name, COALESCE(description, ''), keywords FROM taxonomy_skills WHERE id = $1`,
		id,
	)
	var s taxonomy.Skill
	if err := row.Scan(&s.ID, &s.GroupID, &s.Name, &s.Description, &s.Keywords); err != nil {
		if database.IsNoRows(err) {
			return taxonomy.Skill{}, ErrTaxonomySkillNotFound
		}
		return taxonomy.Skill{}, err
	}
	return s, nil
}

func (r *PostgresTaxonomyRepository) SkillExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM taxonomy_skills WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Import upserts the whole batch in one transaction. Parents are matched by
// case-insensitive name under their own parent, skills get their keywords
// replaced.
func (r *PostgresTaxonomyRepository) Import(ctx context.Context, items []taxonomy.ImportItem) (ImportStats, error) {
	stats := ImportStats{Items: len(items)}
	if len(items) == 0 {
		return stats, nil
	}

	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		cats := map[string]uuid.UUID{}
		subs := map[string]uuid.UUID{}
		groups := map[string]uuid.UUID{}

		for _, it := range items {
			catKey := strings.ToLower(it.Category)
			catID, ok := cats[catKey]
			if !ok {
				var created bool
				if err := tx.QueryRow(ctx,
					`INSERT INTO taxonomy_categories (name) VALUES ($1)
					 ON CONFLICT ((lower(name))) DO UPDATE SET name = taxonomy_categories.name
					 RETURNING id, (xmax = 0)`,
					it.Category,
				).Scan(&catID, &created); err != nil {
					return err
				}
				cats[catKey] = catID
				if created {
					stats.CategoriesCreated++
				}
			}

			subKey := catKey + "/" + strings.ToLower(it.Subcategory)
			subID, ok := subs[subKey]
			if !ok {
				var created bool
				if err := tx.QueryRow(ctx,
					`INSERT INTO taxonomy_subcategories (category_id, name) VALUES ($1, $2)
					 ON CONFLICT (category_id, (lower(name))) DO UPDATE SET name = taxonomy_subcategories.name
					 RETURNING id, (xmax = 0)`,
					catID, it.Subcategory,
				).Scan(&subID, &created); err != nil {
					return err
				}
				subs[subKey] = subID
				if created {
					stats.SubcategoriesCreated++
				}
			}

			groupKey := subKey + "/" + strings.ToLower(it.Group)
			groupID, ok := groups[groupKey]
			if !ok {
				var created bool
				if err := tx.QueryRow(ctx,
					`INSERT INTO taxonomy_groups (subcategory_id, name) VALUES ($1, $2)
					 ON CONFLICT (subcategory_id, (lower(name))) DO UPDATE SET name = taxonomy_groups.name
					 RETURNING id, (xmax = 0)`,
					subID, it.Group,
				).Scan(&groupID, &created); err != nil {
					return err
				}
				groups[groupKey] = groupID
				if created {
					stats.GroupsCreated++
				}
			}

			keywords := it.Keywords
			if keywords == nil {
				keywords = []string{}
			}
			var skillID uuid.UUID
			var created bool
			if err := tx.QueryRow(ctx,
				`INSERT INTO taxonomy_skills (group_id, name, description, keywords)
				 VALUES ($1, $2, NULLIF($3, ''), $4)
				 ON CONFLICT (group_id, (lower(name))) DO UPDATE
				 SET keywords = EXCLUDED.keywords,
				     description = COALESCE(EXCLUDED.description, taxonomy_skills.description)
				 RETURNING id, (xmax = 0)`,
				groupID, it.Skill, it.Description, keywords,
			).Scan(&skillID, &created); err != nil {
				return err
			}
			if created {
				stats.SkillsCreated++
			} else {
				stats.SkillsUpdated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

func scanSkills(rows database.Rows) ([]taxonomy.Skill, error) {
	defer rows.Close()

	out := make([]taxonomy.Skill, 0)
	for rows.Next() {
		var s taxonomy.Skill
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Name, &s.Description, &s.Keywords); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
