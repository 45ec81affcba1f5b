// Package seeder loads reference and demo data into a migrated database.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/pkg/logger"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// Seeder loads one slice of data. Implementations must be safe to re-run.
type Seeder interface {
	Name() string
	// Columns lists, per table, the columns the seeder writes. Runner checks
	// them before anything is inserted.
	Columns() map[string][]string
	Run(ctx context.Context, db database.DB) error
}

// Defaults is the seed set for a fresh environment. Taxonomy runs first; the
// demo data references its skills by name.
func Defaults() []Seeder {
	return []Seeder{TaxonomySeeder{}, DemoSeeder{}}
}

// Select keeps the named seeders in their original order.
func Select(all []Seeder, names ...string) ([]Seeder, error) {
	if len(names) == 0 {
		return all, nil
	}
	want := map[string]bool{}
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	out := make([]Seeder, 0, len(names))
	for _, s := range all {
		if want[s.Name()] {
			out = append(out, s)
			delete(want, s.Name())
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown seeder %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

type Runner struct {
	Seeders []Seeder
	Log     *logger.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return errors.New("seeder: nil db")
	}
	log := r.Log
	if log == nil {
		log = logger.Nop()
	}

	for _, s := range r.Seeders {
		if err := checkColumns(ctx, db, s.Columns()); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		start := time.Now()
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		log.Info("seeded", "seeder", s.Name(), "elapsed", time.Since(start).String())
	}
	return nil
}

func checkColumns(ctx context.Context, db database.DB, tables map[string][]string) error {
	names := make([]string, 0, len(tables))
	for t := range tables {
		names = append(names, t)
	}
	sort.Strings(names)

	for _, table := range names {
		var missing []string
		err := db.QueryRow(ctx,
			`SELECT COALESCE(array_agg(want ORDER BY want), '{}')
			 FROM unnest($2::text[]) AS want
			 WHERE want NOT IN (
			   SELECT column_name FROM information_schema.columns
			   WHERE table_schema = current_schema() AND table_name = $1
			 )`,
			table, tables[table],
		).Scan(&missing)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s lacks %s", ErrSchemaMismatch, table, strings.Join(missing, ", "))
		}
	}
	return nil
}
