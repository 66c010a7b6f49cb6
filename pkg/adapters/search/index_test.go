package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestIndex(t *testing.T) *LinkIndex {
	t.Helper()

	idx, err := NewLinkIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func fixtureLinks() []domain.Link {
	now := time.Now().UTC()
	return []domain.Link{
		{
			ID: "lnk-title", Title: "React Hooks Guide", Description: "Everything about hooks",
			Category: "frontend", Tags: []string{"javascript"}, IsActive: true, CreatedAt: now,
		},
		{
			ID: "lnk-desc", Title: "Component Patterns", Description: "Patterns that also work in react apps",
			Category: "frontend", Tags: []string{"ui"}, IsActive: true, CreatedAt: now.Add(-time.Hour),
		},
		{
			ID: "lnk-tag", Title: "State Libraries", Description: "Stores and signals",
			Category: "tools", Tags: []string{"react", "state"}, IsActive: true, IsFeatured: true, CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: "lnk-hidden", Title: "React Legacy Docs", Description: "Old docs",
			Category: "frontend", IsActive: false, CreatedAt: now.Add(-3 * time.Hour),
		},
		{
			ID: "lnk-other", Title: "Go Concurrency", Description: "Channels and goroutines",
			Category: "backend", Tags: []string{"go"}, IsActive: true, CreatedAt: now,
		},
	}
}

func active() *bool {
	v := true
	return &v
}

func TestLinkIndex_IndexAll(t *testing.T) {
	idx := setupTestIndex(t)

	require.NoError(t, idx.IndexAll(fixtureLinks()))
	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	// Rebuilding replaces rather than appends.
	require.NoError(t, idx.IndexAll(fixtureLinks()[:2]))
	count, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestLinkIndex_SearchRanksTitleFirst(t *testing.T) {
	idx := setupTestIndex(t)
	require.NoError(t, idx.IndexAll(fixtureLinks()))

	ids, total, err := idx.Search(context.Background(), domain.LinkFilter{
		Search: "react", Active: active(), Page: 1, Limit: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), total)
	require.Len(t, ids, 3)
	assert.Equal(t, "lnk-title", ids[0])
	assert.ElementsMatch(t, []string{"lnk-title", "lnk-desc", "lnk-tag"}, ids)
	assert.NotContains(t, ids, "lnk-hidden")
}

func TestLinkIndex_SearchFilters(t *testing.T) {
	idx := setupTestIndex(t)
	require.NoError(t, idx.IndexAll(fixtureLinks()))
	ctx := context.Background()

	ids, total, err := idx.Search(ctx, domain.LinkFilter{
		Search: "react", Active: active(), Category: "tools", Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"lnk-tag"}, ids)

	featured := true
	ids, _, err = idx.Search(ctx, domain.LinkFilter{
		Search: "react", Featured: &featured, Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lnk-tag"}, ids)

	// No Active filter includes inactive links.
	_, total, err = idx.Search(ctx, domain.LinkFilter{Search: "react", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestLinkIndex_SearchPaginates(t *testing.T) {
	idx := setupTestIndex(t)
	require.NoError(t, idx.IndexAll(fixtureLinks()))

	ids, total, err := idx.Search(context.Background(), domain.LinkFilter{
		Search: "react", Active: active(), Page: 2, Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, ids, 1)
}

func TestLinkIndex_IndexAndRemove(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()

	link := fixtureLinks()[4]
	require.NoError(t, idx.Index(&link))

	ids, _, err := idx.Search(ctx, domain.LinkFilter{Search: "goroutines", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"lnk-other"}, ids)

	link.Description = "Select statements"
	require.NoError(t, idx.Index(&link))
	ids, _, err = idx.Search(ctx, domain.LinkFilter{Search: "goroutines", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, idx.Remove("lnk-other", "lnk-missing"))
	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewLinkIndex_OnDiskReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.bleve")

	idx, err := NewLinkIndex(path)
	require.NoError(t, err)
	link := fixtureLinks()[0]
	require.NoError(t, idx.Index(&link))
	require.NoError(t, idx.Close())

	reopened, err := NewLinkIndex(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
