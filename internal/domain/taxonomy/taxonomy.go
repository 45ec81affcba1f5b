// Package taxonomy models the four-level skill hierarchy:
// category, subcategory, group and skill.
package taxonomy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type Category struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Subcategory struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Groups      []Group   `json:"groups"`
}

type Group struct {
	ID            uuid.UUID `json:"id"`
	SubcategoryID uuid.UUID `json:"subcategory_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Skills        []Skill   `json:"skills"`
}

type Skill struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Keywords    []string  `json:"keywords"`
}

// Row is one skill leaf with its full ancestry, as returned by a flat join.
type Row struct {
	CategoryID      uuid.UUID
	CategoryName    string
	SubcategoryID   uuid.UUID
	SubcategoryName string
	GroupID         uuid.UUID
	GroupName       string
	Skill           Skill
}

// BuildTree nests flat rows into categories. Ordering is by name at every level.
func BuildTree(rows []Row) []Category {
	cats := map[uuid.UUID]*Category{}
	subs := map[uuid.UUID]*Subcategory{}
	groups := map[uuid.UUID]*Group{}

	var catOrder []uuid.UUID
	subOrder := map[uuid.UUID][]uuid.UUID{}
	groupOrder := map[uuid.UUID][]uuid.UUID{}

	for _, r := range rows {
		if _, ok := cats[r.CategoryID]; !ok {
			cats[r.CategoryID] = &Category{ID: r.CategoryID, Name: r.CategoryName}
			catOrder = append(catOrder, r.CategoryID)
		}
		if _, ok := subs[r.SubcategoryID]; !ok {
			subs[r.SubcategoryID] = &Subcategory{ID: r.SubcategoryID, CategoryID: r.CategoryID, Name: r.SubcategoryName}
			subOrder[r.CategoryID] = append(subOrder[r.CategoryID], r.SubcategoryID)
		}
		if _, ok := groups[r.GroupID]; !ok {
			groups[r.GroupID] = &Group{ID: r.GroupID, SubcategoryID: r.SubcategoryID, Name: r.GroupName}
			groupOrder[r.SubcategoryID] = append(groupOrder[r.SubcategoryID], r.GroupID)
		}
		if r.Skill.ID != uuid.Nil {
			g := groups[r.GroupID]
			g.Skills = append(g.Skills, r.Skill)
		}
	}

	out := make([]Category, 0, len(catOrder))
	for _, cid := range catOrder {
		c := *cats[cid]
		for _, sid := range subOrder[cid] {
			s := *subs[sid]
			for _, gid := range groupOrder[sid] {
				g := *groups[gid]
				sort.Slice(g.Skills, func(i, j int) bool { return lessFold(g.Skills[i].Name, g.Skills[j].Name) })
				if g.Skills == nil {
					g.Skills = []Skill{}
				}
				s.Groups = append(s.Groups, g)
			}
			sort.Slice(s.Groups, func(i, j int) bool { return lessFold(s.Groups[i].Name, s.Groups[j].Name) })
			c.Subcategories = append(c.Subcategories, s)
		}
		sort.Slice(c.Subcategories, func(i, j int) bool { return lessFold(c.Subcategories[i].Name, c.Subcategories[j].Name) })
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return lessFold(out[i].Name, out[j].Name) })
	return out
}

func lessFold(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// ImportItem is one skill leaf in a bulk import, named by its ancestry.
type ImportItem struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Group       string   `json:"group"`
	Skill       string   `json:"skill"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords"`
}

var ErrInvalidImport = errors.New("invalid taxonomy import")

func (it ImportItem) Normalized() (ImportItem, error) {
	out := ImportItem{
		Category:    CollapseSpace(it.Category),
		Subcategory: CollapseSpace(it.Subcategory),
		Group:       CollapseSpace(it.Group),
		Skill:       CollapseSpace(it.Skill),
		Description: strings.TrimSpace(it.Description),
	}
	if out.Category == "" || out.Subcategory == "" || out.Group == "" || out.Skill == "" {
		return ImportItem{}, fmt.Errorf("%w: every level needs a name (skill=%q)", ErrInvalidImport, it.Skill)
	}
	seen := map[string]struct{}{}
	out.Keywords = make([]string, 0, len(it.Keywords))
	for _, k := range it.Keywords {
		k = strings.ToLower(CollapseSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.Keywords = append(out.Keywords, k)
	}
	return out, nil
}

// ParseCSV reads category,subcategory,group,skill,keywords[,description]
// records. Keywords are separated by semicolons. A header row is skipped when
// its first cell is "category".
func ParseCSV(r io.Reader) ([]ImportItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []ImportItem
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "category") {
			continue
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("%w: line %d has %d columns", ErrInvalidImport, line, len(rec))
		}
		it := ImportItem{Category: rec[0], Subcategory: rec[1], Group: rec[2], Skill: rec[3]}
		if len(rec) > 4 {
			it.Keywords = strings.Split(rec[4], ";")
		}
		if len(rec) > 5 {
			it.Description = rec[5]
		}
		n, err := it.Normalized()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
