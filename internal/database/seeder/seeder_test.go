package seeder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(ss []Seeder) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Name())
	}
	return out
}

func TestSelect_KeepsDefaultOrder(t *testing.T) {
	got, err := Select(Defaults(), "demo", " Taxonomy ")
	require.NoError(t, err)
	assert.Equal(t, []string{"taxonomy", "demo"}, names(got))

	all, err := Select(Defaults())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSelect_Unknown(t *testing.T) {
	_, err := Select(Defaults(), "demo", "jobs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs")
}

func TestStarterTaxonomy_Normalizes(t *testing.T) {
	seen := map[string]bool{}
	for _, it := range starterTaxonomy {
		n, err := it.Normalized()
		if err != nil {
			t.Fatalf("%q: %v", it.Skill, err)
		}
		if seen[n.Skill] {
			t.Fatalf("duplicate starter skill %q", n.Skill)
		}
		seen[n.Skill] = true
	}
	for _, required := range []string{"Go", "Kubernetes", "PostgreSQL", "Docker"} {
		if !seen[required] {
			t.Fatalf("demo data needs %q in the starter taxonomy", required)
		}
	}
}

func TestDefaults_DeclareColumns(t *testing.T) {
	for _, s := range Defaults() {
		cols := s.Columns()
		if len(cols) == 0 {
			t.Fatalf("%s declares no tables", s.Name())
		}
		for table, c := range cols {
			if len(c) == 0 {
				t.Fatalf("%s: %s has no columns", s.Name(), table)
			}
		}
	}
}
