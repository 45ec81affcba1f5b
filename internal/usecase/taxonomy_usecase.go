package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"learnfinity/internal/domain/normalize"
	"learnfinity/internal/domain/taxonomy"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"
)

const taxonomySnapshotKey = "taxonomy:skills:v1"

// Cache is the subset of the Redis cache the usecases rely on. Reads miss and
// writes succeed silently when the cache is down.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) error
}

type TaxonomyUsecase interface {
	Tree(ctx context.Context) ([]taxonomy.Category, error)
	Search(ctx context.Context, query string, limit int) ([]taxonomy.Skill, error)
	Import(ctx context.Context, items []taxonomy.ImportItem) (repository.ImportStats, error)
	Normalizer(ctx context.Context) (*normalize.Normalizer, error)
}

type Taxonomy struct {
	repo  repository.TaxonomyRepository
	cache Cache
	log   *logger.Logger
}

func NewTaxonomyUsecase(repo repository.TaxonomyRepository, cache Cache, log *logger.Logger) *Taxonomy {
	if log == nil {
		log = logger.Nop()
	}
	return &Taxonomy{repo: repo, cache: cache, log: log}
}

func (u *Taxonomy) Tree(ctx context.Context) ([]taxonomy.Category, error) {
	rows, err := u.repo.ListTreeRows(ctx)
	if err != nil {
		return nil, internal("taxonomy.tree", err)
	}
	return taxonomy.BuildTree(rows), nil
}

func (u *Taxonomy) Search(ctx context.Context, query string, limit int) ([]taxonomy.Skill, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	skills, err := u.repo.SearchSkills(ctx, query, limit)
	if err != nil {
		return nil, internal("taxonomy.search", err)
	}
	return skills, nil
}

// Import validates every item before touching the database, so a bad row
// rejects the whole batch.
func (u *Taxonomy) Import(ctx context.Context, items []taxonomy.ImportItem) (repository.ImportStats, error) {
	if len(items) == 0 {
		return repository.ImportStats{}, ErrInvalidInput
	}
	clean := make([]taxonomy.ImportItem, 0, len(items))
	for _, it := range items {
		n, err := it.Normalized()
		if err != nil {
			return repository.ImportStats{}, errors.Join(ErrInvalidInput, err)
		}
		clean = append(clean, n)
	}

	stats, err := u.repo.Import(ctx, clean)
	if err != nil {
		return repository.ImportStats{}, internal("taxonomy.import", err)
	}

	if u.cache != nil {
		if err := u.cache.Delete(ctx, taxonomySnapshotKey); err != nil {
			u.log.Warn("taxonomy cache invalidation failed", "error", err)
		}
	}
	u.log.Info("taxonomy imported", "items", stats.Items, "skills_created", stats.SkillsCreated, "skills_updated", stats.SkillsUpdated)
	return stats, nil
}

// Normalizer builds a matcher over the current taxonomy snapshot, read from
// the cache when possible.
func (u *Taxonomy) Normalizer(ctx context.Context) (*normalize.Normalizer, error) {
	skills, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	n := normalize.New(skills)
	u.log.Debug("normalizer built", "skills", n.Size())
	return n, nil
}

func (u *Taxonomy) snapshot(ctx context.Context) ([]taxonomy.Skill, error) {
	if u.cache != nil {
		var cached []taxonomy.Skill
		hit, err := u.cache.GetJSON(ctx, taxonomySnapshotKey, &cached)
		if err != nil {
			u.log.Warn("taxonomy cache read failed", "error", err)
		}
		if hit {
			return cached, nil
		}
	}

	skills, err := u.repo.ListSkills(ctx)
	if err != nil {
		return nil, internal("taxonomy.snapshot", err)
	}
	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, taxonomySnapshotKey, skills, 0); err != nil {
			u.log.Warn("taxonomy cache write failed", "error", err)
		}
	}
	return skills, nil
}
