package domain

import "time"

// Link represents one catalogued resource
type Link struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Description   string    `json:"description"`
	Category      string    `json:"category"` // Category slug, not enforced
	Tags          []string  `json:"tags"`     // Handled as JSON text in SQLite
	IsActive      bool      `json:"isActive"`
	IsFeatured    bool      `json:"isFeatured"`
	IsPromoted    bool      `json:"isPromoted"`
	ClickCount    int64     `json:"clickCount"`
	ShareCount    int64     `json:"shareCount"`
	PublishedDate time.Time `json:"publishedDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LinkInput is the raw payload for single and bulk create.
type LinkInput struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Tags          TagList    `json:"tags"`
	IsActive      *bool      `json:"isActive,omitempty"`
	IsFeatured    *bool      `json:"isFeatured,omitempty"`
	IsPromoted    *bool      `json:"isPromoted,omitempty"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
}

// LinkPatch holds the mutable fields of a link. Nil means unchanged.
// Counters are deliberately absent.
type LinkPatch struct {
	Title         *string    `json:"title,omitempty"`
	URL           *string    `json:"url,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Tags          *TagList   `json:"tags,omitempty"`
	IsActive      *bool      `json:"isActive,omitempty"`
	IsFeatured    *bool      `json:"isFeatured,omitempty"`
	IsPromoted    *bool      `json:"isPromoted,omitempty"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
}

// LinkFilter selects links for listing.
type LinkFilter struct {
	Category string
	Search   string
	Active   *bool // nil lists both
	Featured *bool
	Page     int
	Limit    int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps page and limit to usable values.
func (f *LinkFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

// Offset returns the number of rows to skip for the current page.
func (f LinkFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// LinkPage is one page of a link listing.
type LinkPage struct {
	Links      []Link     `json:"links"`
	Pagination Pagination `json:"pagination"`
}
