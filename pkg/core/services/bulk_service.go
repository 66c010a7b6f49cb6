package services

import (
	"context"
	"sort"
	"strings"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// BulkService runs batch curation: imports and duplicate cleanup.
type BulkService struct {
	repo       ports.LinkRepository
	categories ports.CategoryService
	index      ports.SearchIndex
}

func NewBulkService(repo ports.LinkRepository, categories ports.CategoryService, index ports.SearchIndex) *BulkService {
	return &BulkService{repo: repo, categories: categories, index: index}
}

// BulkCreate inserts items one at a time and partitions them into created,
// skipped (URL already stored or repeated in the batch) and invalid.
// It fails only when nothing was created.
func (s *BulkService) BulkCreate(ctx context.Context, items []domain.LinkInput) (*domain.BulkResult, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("links array is required")
	}

	result := &domain.BulkResult{
		Created:       []domain.Link{},
		Skipped:       []domain.SkippedItem{},
		Invalid:       []domain.InvalidItem{},
		NewCategories: []string{},
	}
	seen := make(map[string]bool, len(items))

	invalid := func(index int, item domain.LinkInput, reason string) {
		result.Invalid = append(result.Invalid, domain.InvalidItem{
			Index: index, Title: item.Title, URL: item.URL, Reason: reason,
		})
	}
	skip := func(index int, title, url string) {
		result.Skipped = append(result.Skipped, domain.SkippedItem{Index: index, Title: title, URL: url})
	}

	for i, item := range items {
		index := i + 1
		title := strings.TrimSpace(item.Title)
		url := domain.NormalizeURL(item.URL)
		if title == "" || url == "" {
			invalid(index, item, "title and url are required")
			continue
		}

		if seen[url] {
			skip(index, title, url)
			continue
		}
		existing, err := s.repo.GetByURL(ctx, url)
		if err != nil {
			invalid(index, item, err.Error())
			continue
		}
		if existing != nil {
			skip(index, title, url)
			continue
		}

		category, created, err := s.categories.ResolveOrCreate(ctx, item.Category)
		if err != nil {
			invalid(index, item, err.Error())
			continue
		}
		if created {
			result.NewCategories = append(result.NewCategories, category.Name)
		}

		link, err := buildLink(item, title, url, category.Slug)
		if err != nil {
			invalid(index, item, err.Error())
			continue
		}
		if err := s.repo.Create(ctx, link); err != nil {
			if apperr.Is(err, apperr.ErrDuplicate) {
				seen[url] = true
				skip(index, title, url)
			} else {
				invalid(index, item, err.Error())
			}
			continue
		}
		seen[url] = true
		result.Created = append(result.Created, *link)
	}

	indexLinks(s.index, result.Created...)

	result.CreatedCount = len(result.Created)
	result.SkippedCount = len(result.Skipped)
	result.InvalidCount = len(result.Invalid)

	log.Info().
		Int("created", result.CreatedCount).
		Int("skipped", result.SkippedCount).
		Int("invalid", result.InvalidCount).
		Strs("new_categories", result.NewCategories).
		Msg("Bulk create finished")

	if result.CreatedCount == 0 {
		return nil, apperr.ValidationWithDetails("no links were created", map[string]any{
			"invalid": result.Invalid,
			"skipped": result.Skipped,
		})
	}
	return result, nil
}

// RemoveDuplicates groups links by normalized URL and keeps only the oldest
// of each group. Ties on creation time go to the smaller id.
func (s *BulkService) RemoveDuplicates(ctx context.Context) (*domain.DuplicateReport, error) {
	links, err := s.repo.Dump(ctx)
	if err != nil {
		return nil, err
	}

	groups := lo.GroupBy(links, func(l domain.Link) string { return domain.NormalizeURL(l.URL) })
	keys := lo.Keys(groups)
	sort.Strings(keys)

	report := &domain.DuplicateReport{Removed: []domain.RemovedLink{}}
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID < group[j].ID
		})

		report.DuplicateGroups++
		report.Removed = append(report.Removed, lo.Map(group[1:], func(l domain.Link, _ int) domain.RemovedLink {
			return domain.RemovedLink{ID: l.ID, Title: l.Title, URL: l.URL}
		})...)
	}

	if len(report.Removed) == 0 {
		return report, nil
	}

	ids := lo.Map(report.Removed, func(r domain.RemovedLink, _ int) string { return r.ID })
	removed, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	unindexLinks(s.index, ids...)
	report.RemovedCount = int(removed)

	log.Info().Int("groups", report.DuplicateGroups).Int64("removed", removed).Msg("Duplicate links removed")
	return report, nil
}

var _ ports.BulkService = (*BulkService)(nil)
