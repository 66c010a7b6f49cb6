package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkshala/linkshala-api/pkg/adapters/repository/sqlite"
	"github.com/linkshala/linkshala-api/pkg/adapters/search"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/stretchr/testify/require"
)

var dbSeq atomic.Int64

type stubDescriber struct {
	desc  string
	err   error
	calls atomic.Int32
}

func (d *stubDescriber) Describe(_ context.Context, _ *domain.Link) (string, error) {
	d.calls.Add(1)
	return d.desc, d.err
}

type testEnv struct {
	repo       *sqlite.SQLiteRepository
	index      *search.LinkIndex
	describer  *stubDescriber
	categories *CategoryService
	links      *LinkService
	bulk       *BulkService
	stats      *StatsService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	repo, err := sqlite.NewSQLiteRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	index, err := search.NewLinkIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	describer := &stubDescriber{desc: "Fetched description"}
	categories := NewCategoryService(repo, repo, index)
	links := NewLinkService(repo, categories, index, describer)
	t.Cleanup(links.WaitBackfills)

	return &testEnv{
		repo:       repo,
		index:      index,
		describer:  describer,
		categories: categories,
		links:      links,
		bulk:       NewBulkService(repo, categories, index),
		stats:      NewStatsService(repo),
	}
}

// insertRaw stores a link as-is, bypassing normalization. It stands in for
// legacy rows written before URLs were normalized.
func (e *testEnv) insertRaw(t *testing.T, linkID, url string, created time.Time) {
	t.Helper()
	require.NoError(t, e.repo.Create(context.Background(), &domain.Link{
		ID:        linkID,
		Title:     "Raw " + linkID,
		URL:       url,
		Category:  domain.DefaultCategorySlug,
		Tags:      []string{},
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}))
}

func ptr[T any](v T) *T {
	return &v
}

func mustCreate(t *testing.T, s *LinkService, title, url, category string) *domain.Link {
	t.Helper()
	link, err := s.CreateLink(context.Background(), domain.LinkInput{Title: title, URL: url, Category: category})
	require.NoError(t, err)
	return link
}

func runConcurrently(n int, fn func()) {
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	wg.Wait()
}

var errDescribe = errors.New("describer offline")
