package domain

// Totals are catalog-wide counters, computed on read.
type Totals struct {
	Links       int64 `json:"totalLinks"`
	ActiveLinks int64 `json:"activeLinks"`
	Clicks      int64 `json:"totalClicks"`
	Shares      int64 `json:"totalShares"`
	Categories  int64 `json:"totalCategories"`
}

// CategoryCount is the number of active links filed under a slug
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// TopLink projects only the display fields of a popular link.
type TopLink struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	ClickCount int64  `json:"clickCount"`
	ShareCount int64  `json:"shareCount"`
}

// Stats represents the admin dashboard rollup
type Stats struct {
	Totals
	ByCategory []CategoryCount `json:"byCategory"`
	TopLinks   []TopLink       `json:"topLinks"`
}

// TopLinksLimit is how many links the dashboard ranks by clicks.
const TopLinksLimit = 5
