// Package search ranks catalog links for free-text queries using Bleve.
//
// The SQL store stays the source of truth. The index holds only what is
// needed to rank and filter: title, description, tags, category and the
// active/featured flags. It can be rebuilt from the store at any time.
package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/rs/zerolog/log"
)

// mappingVersion changes whenever buildMapping does; a mismatch on disk
// forces a fresh index.
const mappingVersion = "1"

// Field boosts. Title hits outrank tag hits, which outrank description hits.
const (
	titleBoost       = 3.0
	tagsBoost        = 2.0
	descriptionBoost = 1.0
)

// LinkIndex wraps a Bleve index of links.
// All methods are safe for concurrent use.
type LinkIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	path  string
}

type document struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
	Featured    bool      `json:"featured"`
	Created     time.Time `json:"created"`
}

func toDocument(l *domain.Link) document {
	return document{
		Title:       l.Title,
		Description: l.Description,
		Tags:        l.Tags,
		Category:    l.Category,
		Active:      l.IsActive,
		Featured:    l.IsFeatured,
		Created:     l.CreatedAt,
	}
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	text := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = false
		return fm
	}
	doc.AddFieldMappingsAt("title", text())
	doc.AddFieldMappingsAt("description", text())
	doc.AddFieldMappingsAt("tags", text())

	category := bleve.NewTextFieldMapping()
	category.Analyzer = keyword.Name
	category.Store = false
	doc.AddFieldMappingsAt("category", category)

	doc.AddFieldMappingsAt("active", bleve.NewBooleanFieldMapping())
	doc.AddFieldMappingsAt("featured", bleve.NewBooleanFieldMapping())
	doc.AddFieldMappingsAt("created", bleve.NewDateTimeFieldMapping())

	im.DefaultMapping = doc
	return im
}

// NewLinkIndex opens the index at path, creating it when missing or when the
// mapping version changed. An empty path gives an in-memory index.
func NewLinkIndex(path string) (*LinkIndex, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &LinkIndex{index: idx}, nil
	}

	versionPath := path + ".version"
	if _, err := os.Stat(path); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		if readErr == nil && string(existing) == mappingVersion {
			if idx, openErr := bleve.Open(path); openErr == nil {
				log.Info().Str("path", path).Msg("Opened existing search index")
				return &LinkIndex{index: idx, path: path}, nil
			} else {
				log.Warn().Err(openErr).Str("path", path).Msg("Failed to open search index, recreating")
			}
		}
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	idx, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
		log.Warn().Err(err).Msg("Failed to write search index version file")
	}
	log.Info().Str("path", path).Str("mapping_version", mappingVersion).Msg("Created new search index")

	return &LinkIndex{index: idx, path: path}, nil
}

func (s *LinkIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Index adds or replaces one link.
func (s *LinkIndex) Index(link *domain.Link) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(link.ID, toDocument(link))
}

// IndexAll replaces the whole index content with links.
func (s *LinkIndex) IndexAll(links []domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(); err != nil {
		return err
	}

	const batchSize = 500
	for i := 0; i < len(links); i += batchSize {
		end := min(i+batchSize, len(links))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			if err := batch.Index(links[j].ID, toDocument(&links[j])); err != nil {
				return fmt.Errorf("batch index %s: %w", links[j].ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// clear deletes every document. Callers hold the write lock.
func (s *LinkIndex) clear() error {
	count, err := s.index.DocCount()
	if err != nil || count == 0 {
		return err
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return fmt.Errorf("list indexed documents: %w", err)
	}

	batch := s.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return s.index.Batch(batch)
}

// Remove deletes links from the index. Unknown ids are ignored.
func (s *LinkIndex) Remove(ids ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// Count returns the number of indexed links.
func (s *LinkIndex) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Search returns ids matching filter.Search, most relevant first.
func (s *LinkIndex) Search(ctx context.Context, filter domain.LinkFilter) ([]string, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(filter), filter.Limit, filter.Offset(), false)
	req.SortBy([]string{"-_score", "-created"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, int64(res.Total), nil
}

func buildQuery(filter domain.LinkFilter) query.Query {
	field := func(name string, boost float64) query.Query {
		q := bleve.NewMatchQuery(filter.Search)
		q.SetField(name)
		q.SetBoost(boost)
		return q
	}
	text := bleve.NewDisjunctionQuery(
		field("title", titleBoost),
		field("tags", tagsBoost),
		field("description", descriptionBoost),
	)

	must := []query.Query{text}
	if filter.Active != nil {
		q := bleve.NewBoolFieldQuery(*filter.Active)
		q.SetField("active")
		must = append(must, q)
	}
	if filter.Featured != nil {
		q := bleve.NewBoolFieldQuery(*filter.Featured)
		q.SetField("featured")
		must = append(must, q)
	}
	if filter.Category != "" {
		q := bleve.NewTermQuery(filter.Category)
		q.SetField("category")
		must = append(must, q)
	}
	return bleve.NewConjunctionQuery(must...)
}

var _ ports.SearchIndex = (*LinkIndex)(nil)
