package taxonomy

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	in := `category,subcategory,group,skill,keywords
Technology, Cloud ,Containers,Kubernetes,k8s; kubectl ;K8S
Technology,Cloud,Containers,Docker,container;dockerfile,Container runtime
`
	items, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Cloud", items[0].Subcategory)
	assert.Equal(t, []string{"k8s", "kubectl"}, items[0].Keywords)
	assert.Equal(t, "Container runtime", items[1].Description)
}

func TestParseCSV_MissingLevel(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Technology,,Containers,Docker\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidImport))
}

func TestBuildTree(t *testing.T) {
	cat, sub, grp := uuid.New(), uuid.New(), uuid.New()
	rows := []Row{
		{CategoryID: cat, CategoryName: "Technology", SubcategoryID: sub, SubcategoryName: "Cloud", GroupID: grp, GroupName: "Containers",
			Skill: Skill{ID: uuid.New(), GroupID: grp, Name: "Kubernetes"}},
		{CategoryID: cat, CategoryName: "Technology", SubcategoryID: sub, SubcategoryName: "Cloud", GroupID: grp, GroupName: "Containers",
			Skill: Skill{ID: uuid.New(), GroupID: grp, Name: "docker"}},
	}

	tree := BuildTree(rows)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Subcategories, 1)
	require.Len(t, tree[0].Subcategories[0].Groups, 1)

	skills := tree[0].Subcategories[0].Groups[0].Skills
	require.Len(t, skills, 2)
	assert.Equal(t, "docker", skills[0].Name)
	assert.Equal(t, "Kubernetes", skills[1].Name)
}
