package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestReadTaxonomyFile_CSV(t *testing.T) {
	p := writeFile(t, "skills.csv", "category,subcategory,group,skill,keywords\n"+
		"Technology,Infrastructure,Containers,Kubernetes,k8s;kubectl\n"+
		"Leadership,People,Coaching,Mentoring,\n")

	items, err := readTaxonomyFile(p)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Kubernetes", items[0].Skill)
	assert.Equal(t, []string{"k8s", "kubectl"}, items[0].Keywords)
	assert.Equal(t, "Mentoring", items[1].Skill)
}

func TestReadTaxonomyFile_JSON(t *testing.T) {
	p := writeFile(t, "skills.JSON", `[{"category":"Technology","subcategory":"Data","group":"Databases","skill":"Redis","keywords":["cache"]}]`)

	items, err := readTaxonomyFile(p)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Redis", items[0].Skill)
	assert.Equal(t, []string{"cache"}, items[0].Keywords)
}

func TestReadTaxonomyFile_Missing(t *testing.T) {
	_, err := readTaxonomyFile("")
	require.Error(t, err)

	_, err = readTaxonomyFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID("employee", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseID("employee", "")
	assert.EqualError(t, err, "--employee is required")

	_, err = parseID("course", "abc")
	assert.EqualError(t, err, "--course must be a uuid")
}
