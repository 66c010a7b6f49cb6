package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/id"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// backfillTimeout bounds one description backfill, fetch and write included.
const backfillTimeout = 30 * time.Second

type LinkService struct {
	repo       ports.LinkRepository
	categories ports.CategoryService
	index      ports.SearchIndex // optional
	describer  ports.Describer   // optional

	backfills sync.WaitGroup
	inflight  sync.Map // link id -> struct{}
}

// NewLinkService wires the link store. index and describer may be nil:
// search then falls back to substring matching and reads skip backfill.
func NewLinkService(repo ports.LinkRepository, categories ports.CategoryService, index ports.SearchIndex, describer ports.Describer) *LinkService {
	return &LinkService{
		repo:       repo,
		categories: categories,
		index:      index,
		describer:  describer,
	}
}

func (s *LinkService) CreateLink(ctx context.Context, input domain.LinkInput) (*domain.Link, error) {
	title := strings.TrimSpace(input.Title)
	url := domain.NormalizeURL(input.URL)
	if title == "" || url == "" {
		return nil, apperr.Validation("title and url are required")
	}

	existing, err := s.repo.GetByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Duplicate("link with this URL already exists")
	}

	category, _, err := s.categories.ResolveOrCreate(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	link, err := buildLink(input, title, url, category.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}
	indexLinks(s.index, *link)

	log.Info().Str("id", link.ID).Str("url", link.URL).Str("category", link.Category).Msg("Link created")
	return link, nil
}

// buildLink applies creation defaults to an already validated input.
func buildLink(input domain.LinkInput, title, url, categorySlug string) (*domain.Link, error) {
	linkID, err := id.Generate(id.LinkPrefix)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	link := &domain.Link{
		ID:            linkID,
		Title:         title,
		URL:           url,
		Description:   strings.TrimSpace(input.Description),
		Category:      categorySlug,
		Tags:          input.Tags.Strings(),
		IsActive:      true,
		PublishedDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		link.IsFeatured = *input.IsFeatured
	}
	if input.IsPromoted != nil {
		link.IsPromoted = *input.IsPromoted
	}
	if input.PublishedDate != nil && !input.PublishedDate.IsZero() {
		link.PublishedDate = input.PublishedDate.UTC()
	}
	return link, nil
}

// GetLink reads a link without touching its counters.
func (s *LinkService) GetLink(ctx context.Context, linkID string) (*domain.Link, error) {
	link, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperr.NotFound("link not found")
	}
	return link, nil
}

func (s *LinkService) UpdateLink(ctx context.Context, linkID string, patch domain.LinkPatch) (*domain.Link, error) {
	link, err := s.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		link.Title = title
	}
	if patch.URL != nil {
		url := domain.NormalizeURL(*patch.URL)
		if url == "" {
			return nil, apperr.Validation("url cannot be empty")
		}
		if url != link.URL {
			other, err := s.repo.GetByURL(ctx, url)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != link.ID {
				return nil, apperr.Duplicate("link with this URL already exists")
			}
		}
		link.URL = url
	}
	if patch.Description != nil {
		link.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		category, _, err := s.categories.ResolveOrCreate(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		link.Category = category.Slug
	}
	if patch.Tags != nil {
		link.Tags = patch.Tags.Strings()
	}
	if patch.IsActive != nil {
		link.IsActive = *patch.IsActive
	}
	if patch.IsFeatured != nil {
		link.IsFeatured = *patch.IsFeatured
	}
	if patch.IsPromoted != nil {
		link.IsPromoted = *patch.IsPromoted
	}
	if patch.PublishedDate != nil && !patch.PublishedDate.IsZero() {
		link.PublishedDate = patch.PublishedDate.UTC()
	}
	link.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	indexLinks(s.index, *link)

	return link, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, linkID string) error {
	deleted, err := s.repo.Delete(ctx, linkID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("link not found")
	}
	unindexLinks(s.index, linkID)

	log.Info().Str("id", linkID).Msg("Link deleted")
	return nil
}

// BulkDelete removes whichever of ids exist and reports how many did.
func (s *LinkService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return 0, apperr.Validation("ids are required")
	}

	removed, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	unindexLinks(s.index, ids...)

	log.Info().Int("requested", len(ids)).Int64("removed", removed).Msg("Links bulk deleted")
	return removed, nil
}

// ListLinks pages through links. Without a search term the newest come
// first; with one, the search index decides the order.
func (s *LinkService) ListLinks(ctx context.Context, filter domain.LinkFilter) (*domain.LinkPage, error) {
	filter.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	var (
		links []domain.Link
		total int64
		err   error
	)
	if filter.Search != "" && s.index != nil {
		links, total, err = s.searchLinks(ctx, filter)
	} else {
		links, err = s.repo.List(ctx, filter)
		if err == nil {
			total, err = s.repo.Count(ctx, filter)
		}
	}
	if err != nil {
		return nil, err
	}

	return &domain.LinkPage{
		Links:      links,
		Pagination: domain.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *LinkService) searchLinks(ctx context.Context, filter domain.LinkFilter) ([]domain.Link, int64, error) {
	ids, total, err := s.index.Search(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := lo.KeyBy(found, func(l domain.Link) string { return l.ID })

	// Keep relevance order; ids the store no longer has are dropped.
	links := lo.FilterMap(ids, func(linkID string, _ int) (domain.Link, bool) {
		l, ok := byID[linkID]
		return l, ok
	})
	return links, total, nil
}

// MoveCategory re-files ids under an existing category.
func (s *LinkService) MoveCategory(ctx context.Context, ids []string, targetSlug string) (int64, error) {
	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return 0, apperr.Validation("linkIds are required")
	}
	if strings.TrimSpace(targetSlug) == "" {
		return 0, apperr.Validation("targetCategory is required")
	}

	target, err := s.categories.GetBySlug(ctx, targetSlug)
	if err != nil {
		return 0, err
	}

	moved, err := s.repo.SetCategory(ctx, ids, target.Slug)
	if err != nil {
		return 0, err
	}

	if s.index != nil && moved > 0 {
		if links, err := s.repo.GetByIDs(ctx, ids); err == nil {
			indexLinks(s.index, links...)
		} else {
			log.Warn().Err(err).Msg("Failed to reload moved links for indexing")
		}
	}

	log.Info().Str("category", target.Slug).Int64("moved", moved).Msg("Links moved")
	return moved, nil
}

// Visit is the public read: it counts the click and, when the link has no
// description yet, starts a background backfill. Backfill errors never
// reach the caller.
func (s *LinkService) Visit(ctx context.Context, linkID string) (*domain.Link, error) {
	link, err := s.IncrementClick(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.Description == "" {
		s.scheduleBackfill(*link)
	}
	return link, nil
}

// IncrementClick counts a click, inactive links included.
func (s *LinkService) IncrementClick(ctx context.Context, linkID string) (*domain.Link, error) {
	ok, err := s.repo.IncrementClicks(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("link not found")
	}
	return s.GetLink(ctx, linkID)
}

func (s *LinkService) IncrementShare(ctx context.Context, linkID string) (int64, error) {
	count, ok, err := s.repo.IncrementShares(ctx, linkID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.NotFound("link not found")
	}
	return count, nil
}

// Reindex rebuilds the search index from the store.
func (s *LinkService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	links, err := s.repo.Dump(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.index.IndexAll(links); err != nil {
		return 0, err
	}
	return len(links), nil
}

func (s *LinkService) scheduleBackfill(link domain.Link) {
	if s.describer == nil {
		return
	}
	if _, running := s.inflight.LoadOrStore(link.ID, struct{}{}); running {
		return
	}

	s.backfills.Add(1)
	go func() {
		defer s.backfills.Done()
		defer s.inflight.Delete(link.ID)

		// Detached from the request, which is already answered.
		ctx, cancel := context.WithTimeout(context.Background(), backfillTimeout)
		defer cancel()

		desc, err := s.describer.Describe(ctx, &link)
		if err != nil || strings.TrimSpace(desc) == "" {
			log.Warn().Err(err).Str("id", link.ID).Msg("Description backfill produced nothing")
			return
		}

		filled, err := s.repo.FillDescription(ctx, link.ID, desc)
		if err != nil {
			log.Warn().Err(err).Str("id", link.ID).Msg("Failed to store backfilled description")
			return
		}
		if filled {
			link.Description = desc
			indexLinks(s.index, link)
			log.Debug().Str("id", link.ID).Msg("Description backfilled")
		}
	}()
}

// WaitBackfills blocks until every scheduled backfill has finished.
func (s *LinkService) WaitBackfills() {
	s.backfills.Wait()
}

// Index writes follow successful store writes. A failure leaves the store
// correct and is only logged.
func indexLinks(index ports.SearchIndex, links ...domain.Link) {
	if index == nil {
		return
	}
	for i := range links {
		if err := index.Index(&links[i]); err != nil {
			log.Warn().Err(err).Str("id", links[i].ID).Msg("Failed to index link")
		}
	}
}

func unindexLinks(index ports.SearchIndex, ids ...string) {
	if index == nil || len(ids) == 0 {
		return
	}
	if err := index.Remove(ids...); err != nil {
		log.Warn().Err(err).Int("count", len(ids)).Msg("Failed to remove links from index")
	}
}

var _ ports.LinkService = (*LinkService)(nil)
