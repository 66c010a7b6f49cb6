package domain

// InvalidItem is a bulk item rejected before persistence. Index is 1-based.
type InvalidItem struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason"`
}

// SkippedItem is a bulk item whose URL already exists.
type SkippedItem struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// BulkResult partitions a bulk create call.
type BulkResult struct {
	Created       []Link        `json:"created"`
	CreatedCount  int           `json:"createdCount"`
	Skipped       []SkippedItem `json:"skipped"`
	SkippedCount  int           `json:"skippedCount"`
	Invalid       []InvalidItem `json:"invalid"`
	InvalidCount  int           `json:"invalidCount"`
	NewCategories []string      `json:"newCategories"`
}

// RemovedLink records a link deleted by the duplicate reconciler.
type RemovedLink struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DuplicateReport summarizes a duplicate removal run.
type DuplicateReport struct {
	RemovedCount    int           `json:"removedCount"`
	DuplicateGroups int           `json:"duplicateGroups"`
	Removed         []RemovedLink `json:"removed"`
}
