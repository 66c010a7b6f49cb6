package ports

import (
	"context"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
)

// LinkRepository defines storage operations for links
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByID(ctx context.Context, id string) (*domain.Link, error)
	GetByURL(ctx context.Context, url string) (*domain.Link, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Link, error)
	Update(ctx context.Context, link *domain.Link) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	List(ctx context.Context, filter domain.LinkFilter) ([]domain.Link, error)
	Count(ctx context.Context, filter domain.LinkFilter) (int64, error)
	Dump(ctx context.Context) ([]domain.Link, error) // Every link, oldest first

	// Counters are SQL increments, never read-modify-write
	IncrementClicks(ctx context.Context, id string) (bool, error)
	IncrementShares(ctx context.Context, id string) (int64, bool, error)

	SetCategory(ctx context.Context, ids []string, slug string) (int64, error)
	FillDescription(ctx context.Context, id, description string) (bool, error)

	// Stats
	Totals(ctx context.Context) (*domain.Totals, error)
	CountByCategory(ctx context.Context) ([]domain.CategoryCount, error)
	TopByClicks(ctx context.Context, limit int) ([]domain.TopLink, error)
}

// CategoryRepository defines storage operations for categories
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CountLinksInCategory(ctx context.Context, slug string) (int64, error)

	// RenameCategory saves the category and moves every link from oldSlug
	// to the category's current slug as one unit.
	RenameCategory(ctx context.Context, category *domain.Category, oldSlug string) (int64, error)
}

// SearchIndex ranks links for free-text queries.
type SearchIndex interface {
	Index(link *domain.Link) error
	IndexAll(links []domain.Link) error
	Remove(ids ...string) error
	// Search returns matching ids, best first, plus the total hit count.
	Search(ctx context.Context, filter domain.LinkFilter) ([]string, int64, error)
}

// Describer produces a description for a link that has none.
type Describer interface {
	Describe(ctx context.Context, link *domain.Link) (string, error)
}

// CategoryService defines business logic for categories
type CategoryService interface {
	ResolveOrCreate(ctx context.Context, name string) (*domain.Category, bool, error)
	Resolve(ctx context.Context, slug string) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error)
}

// LinkService defines the business logic operations
type LinkService interface {
	CreateLink(ctx context.Context, input domain.LinkInput) (*domain.Link, error)
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	UpdateLink(ctx context.Context, id string, patch domain.LinkPatch) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	ListLinks(ctx context.Context, filter domain.LinkFilter) (*domain.LinkPage, error)
	Reindex(ctx context.Context) (int, error)
	MoveCategory(ctx context.Context, ids []string, targetSlug string) (int64, error)

	// Public analytics
	Visit(ctx context.Context, id string) (*domain.Link, error)
	IncrementClick(ctx context.Context, id string) (*domain.Link, error)
	IncrementShare(ctx context.Context, id string) (int64, error)
}

// BulkService defines batch curation operations
type BulkService interface {
	BulkCreate(ctx context.Context, items []domain.LinkInput) (*domain.BulkResult, error)
	RemoveDuplicates(ctx context.Context) (*domain.DuplicateReport, error)
}

// StatsService defines read-only rollups
type StatsService interface {
	Dashboard(ctx context.Context) (*domain.Stats, error)
	CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error)
}
