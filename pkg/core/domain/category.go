package domain

import "time"

const (
	// DefaultCategoryName is used when a link is created without a category.
	DefaultCategoryName = "Tools"
	DefaultCategorySlug = "tools"

	// UncategorizedSlug is what readers see for a slug with no category record.
	UncategorizedSlug = "uncategorized"
)

// Category represents a named grouping of links
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	LinkCount   int64     `json:"linkCount"` // Derived on read
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryPatch holds the mutable fields of a category.
type CategoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Uncategorized is the placeholder returned for dangling slugs.
func Uncategorized() *Category {
	return &Category{
		Name:     "Uncategorized",
		Slug:     UncategorizedSlug,
		IsActive: true,
	}
}
