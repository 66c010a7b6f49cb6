package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
)

// --- Category Repository Implementation ---

const categoryColumns = `c.id, c.name, c.slug, c.description, c.is_active, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM links l WHERE l.category = c.slug)`

func scanCategory(row scanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.LinkCount); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `INSERT INTO categories (id, name, slug, description, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Slug, category.Description, category.IsActive,
		category.CreatedAt, category.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Duplicate("category already exists")
	}
	return err
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *SQLiteRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.slug = ?`, slug)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c`
	if activeOnly {
		query += ` WHERE c.is_active = 1`
	}
	query += ` ORDER BY c.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepository) CountLinksInCategory(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE category = ?`, slug).Scan(&count)
	return count, err
}

// RenameCategory updates the category row and re-points links from oldSlug
// in a single transaction. It returns how many links were moved.
func (r *SQLiteRepository) RenameCategory(ctx context.Context, category *domain.Category, oldSlug string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE categories SET name = ?, slug = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.Slug, category.Description, category.IsActive, category.UpdatedAt, category.ID,
	)
	if isUniqueViolation(err) {
		return 0, apperr.Conflict("another category already uses this name")
	}
	if err != nil {
		return 0, fmt.Errorf("update category: %w", err)
	}

	var moved int64
	if oldSlug != category.Slug {
		res, err := tx.ExecContext(ctx,
			`UPDATE links SET category = ?, updated_at = ? WHERE category = ?`,
			category.Slug, category.UpdatedAt, oldSlug,
		)
		if err != nil {
			return 0, fmt.Errorf("cascade category slug: %w", err)
		}
		if moved, err = res.RowsAffected(); err != nil {
			return 0, err
		}
	}

	return moved, tx.Commit()
}
