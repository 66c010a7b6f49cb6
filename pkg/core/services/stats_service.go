package services

import (
	"context"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/ports"
)

// StatsService computes read-only rollups. Nothing is cached.
type StatsService struct {
	repo ports.LinkRepository
}

func NewStatsService(repo ports.LinkRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) Dashboard(ctx context.Context) (*domain.Stats, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopByClicks(ctx, domain.TopLinksLimit)
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		Totals:     *totals,
		ByCategory: byCategory,
		TopLinks:   top,
	}, nil
}

// CategoryCounts is the public view: active links per category slug.
func (s *StatsService) CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error) {
	return s.repo.CountByCategory(ctx)
}

var _ ports.StatsService = (*StatsService)(nil)
