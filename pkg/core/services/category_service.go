package services

import (
	"context"
	"strings"
	"time"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/id"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/rs/zerolog/log"
)

type CategoryService struct {
	repo  ports.CategoryRepository
	links ports.LinkRepository
	index ports.SearchIndex
}

// NewCategoryService wires the category store. links and index keep the
// search index in step with rename cascades; index may be nil.
func NewCategoryService(repo ports.CategoryRepository, links ports.LinkRepository, index ports.SearchIndex) *CategoryService {
	return &CategoryService{repo: repo, links: links, index: index}
}

// ResolveOrCreate finds the category whose slug matches name, creating it
// when absent. A name with an empty slug resolves to the default category.
// The bool reports whether a record was created.
func (s *CategoryService) ResolveOrCreate(ctx context.Context, name string) (*domain.Category, bool, error) {
	name = strings.TrimSpace(name)
	slug := domain.Slugify(name)
	if slug == "" {
		name, slug = domain.DefaultCategoryName, domain.DefaultCategorySlug
	}

	existing, err := s.repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	category, err := s.newCategory(name, slug, "")
	if err != nil {
		return nil, false, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		// Lost a race with a concurrent create of the same slug.
		if apperr.Is(err, apperr.ErrDuplicate) {
			existing, getErr := s.repo.GetCategoryBySlug(ctx, slug)
			if getErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	log.Info().Str("slug", slug).Str("name", name).Msg("Category created on demand")
	return category, true, nil
}

// Resolve returns the category for slug, or the uncategorized placeholder
// when no record carries that slug.
func (s *CategoryService) Resolve(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return domain.Uncategorized(), nil
	}
	return category, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.repo.GetCategoryBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.NotFoundf("category %q not found", slug)
	}
	return category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name is required")
	}
	slug := domain.Slugify(name)
	if slug == "" {
		return nil, apperr.Validation("category name must contain letters or digits")
	}

	existing, err := s.repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Duplicate("category already exists")
	}

	category, err := s.newCategory(name, slug, strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory applies patch. A new name recomputes the slug and moves
// every link filed under the old slug in the same transaction.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, patch domain.CategoryPatch) (*domain.Category, error) {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.NotFound("category not found")
	}
	oldSlug := category.Slug

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("category name is required")
		}
		slug := domain.Slugify(name)
		if slug == "" {
			return nil, apperr.Validation("category name must contain letters or digits")
		}
		if slug != oldSlug {
			other, err := s.repo.GetCategoryBySlug(ctx, slug)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != category.ID {
				return nil, apperr.Conflict("another category already uses this name")
			}
		}
		category.Name = name
		category.Slug = slug
	}
	if patch.Description != nil {
		category.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.IsActive != nil {
		category.IsActive = *patch.IsActive
	}
	category.UpdatedAt = time.Now().UTC()

	moved, err := s.repo.RenameCategory(ctx, category, oldSlug)
	if err != nil {
		return nil, err
	}
	if moved > 0 {
		log.Info().Str("from", oldSlug).Str("to", category.Slug).Int64("links", moved).Msg("Category renamed, links moved")
		s.reindexCategory(ctx, category.Slug)
	}

	// Reload for a fresh linkCount.
	updated, err := s.repo.GetCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("category not found")
	}
	return updated, nil
}

// reindexCategory rewrites the index documents of every link filed under
// slug. Failures are logged; the next full reindex repairs them.
func (s *CategoryService) reindexCategory(ctx context.Context, slug string) {
	if s.index == nil || s.links == nil {
		return
	}
	filter := domain.LinkFilter{Category: slug, Limit: domain.MaxPageSize}
	for filter.Page = 1; ; filter.Page++ {
		links, err := s.links.List(ctx, filter)
		if err != nil {
			log.Warn().Err(err).Str("category", slug).Msg("Failed to load renamed links for indexing")
			return
		}
		indexLinks(s.index, links...)
		if len(links) < filter.Limit {
			return
		}
	}
}

// DeleteCategory refuses while any link still references the slug.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return apperr.NotFound("category not found")
	}

	count, err := s.repo.CountLinksInCategory(ctx, category.Slug)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.ConflictWithDetails("category still has links", map[string]int64{"linkCount": count})
	}

	return s.repo.DeleteCategory(ctx, categoryID)
}

func (s *CategoryService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, activeOnly)
}

func (s *CategoryService) newCategory(name, slug, description string) (*domain.Category, error) {
	categoryID, err := id.Generate(id.CategoryPrefix)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Category{
		ID:          categoryID,
		Name:        name,
		Slug:        slug,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

var _ ports.CategoryService = (*CategoryService)(nil)
