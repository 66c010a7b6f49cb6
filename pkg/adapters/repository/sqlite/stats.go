package sqlite

import (
	"context"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
)

func (r *SQLiteRepository) Totals(ctx context.Context) (*domain.Totals, error) {
	var t domain.Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(click_count), 0),
			COALESCE(SUM(share_count), 0)
		FROM links`,
	).Scan(&t.Links, &t.ActiveLinks, &t.Clicks, &t.Shares)
	if err != nil {
		return nil, err
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&t.Categories); err != nil {
		return nil, err
	}
	return &t, nil
}

// CountByCategory groups active links by their category slug.
func (r *SQLiteRepository) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS c
		FROM links
		WHERE is_active = 1
		GROUP BY category
		ORDER BY c DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []domain.CategoryCount{}
	for rows.Next() {
		var cc domain.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

func (r *SQLiteRepository) TopByClicks(ctx context.Context, limit int) ([]domain.TopLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, url, click_count, share_count
		FROM links
		WHERE is_active = 1
		ORDER BY click_count DESC, created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := []domain.TopLink{}
	for rows.Next() {
		var t domain.TopLink
		if err := rows.Scan(&t.ID, &t.Title, &t.URL, &t.ClickCount, &t.ShareCount); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}
