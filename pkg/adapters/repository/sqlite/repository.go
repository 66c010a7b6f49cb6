package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/ports"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// A single local connection serializes writers, so concurrent
	// increments never hit SQLITE_BUSY.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'tools',
		tags JSON,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_featured INTEGER NOT NULL DEFAULT 0,
		is_promoted INTEGER NOT NULL DEFAULT 0,
		click_count INTEGER NOT NULL DEFAULT 0,
		share_count INTEGER NOT NULL DEFAULT 0,
		published_date DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_links_category ON links(category);
	CREATE INDEX IF NOT EXISTS idx_links_is_active ON links(is_active);
	CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_categories_slug ON categories(slug);
	`
	_, err := db.Exec(query)
	return err
}

const linkColumns = `id, title, url, description, category, tags, is_active, is_featured, is_promoted,
	click_count, share_count, published_date, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (*domain.Link, error) {
	var l domain.Link
	var tagsJSON []byte
	var published sql.NullTime

	if err := row.Scan(
		&l.ID, &l.Title, &l.URL, &l.Description, &l.Category, &tagsJSON,
		&l.IsActive, &l.IsFeatured, &l.IsPromoted,
		&l.ClickCount, &l.ShareCount, &published, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if published.Valid {
		l.PublishedDate = published.Time
	}
	_ = jsoniter.Unmarshal(tagsJSON, &l.Tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return &l, nil
}

func collectLinks(rows *sql.Rows) ([]domain.Link, error) {
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// inClause returns "?, ?, ?" and the matching args.
func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func (r *SQLiteRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (` + linkColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tagsJSON, err := jsoniter.Marshal(link.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		link.ID, link.Title, link.URL, link.Description, link.Category, string(tagsJSON),
		link.IsActive, link.IsFeatured, link.IsPromoted,
		link.ClickCount, link.ShareCount, link.PublishedDate, link.CreatedAt, link.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Duplicate("link with this URL already exists")
	}
	return err
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return link, err
}

func (r *SQLiteRepository) GetByURL(ctx context.Context, url string) (*domain.Link, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE url = ?`, url)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return link, err
}

// GetByIDs returns the links that exist, in no particular order.
func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Link, error) {
	if len(ids) == 0 {
		return []domain.Link{}, nil
	}
	placeholders, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	return collectLinks(rows)
}

// Update writes the mutable fields. Counters are left alone.
func (r *SQLiteRepository) Update(ctx context.Context, link *domain.Link) error {
	query := `UPDATE links SET title = ?, url = ?, description = ?, category = ?, tags = ?,
			  is_active = ?, is_featured = ?, is_promoted = ?, published_date = ?, updated_at = ?
			  WHERE id = ?`

	tagsJSON, err := jsoniter.Marshal(link.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		link.Title, link.URL, link.Description, link.Category, string(tagsJSON),
		link.IsActive, link.IsFeatured, link.IsPromoted, link.PublishedDate, link.UpdatedAt,
		link.ID,
	)
	if isUniqueViolation(err) {
		return apperr.Duplicate("link with this URL already exists")
	}
	return err
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SQLiteRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(ids)
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func linkWhere(filter domain.LinkFilter) (string, []any) {
	where := ` WHERE 1 = 1`
	args := []any{}

	if filter.Active != nil {
		where += ` AND is_active = ?`
		args = append(args, *filter.Active)
	}
	if filter.Featured != nil {
		where += ` AND is_featured = ?`
		args = append(args, *filter.Featured)
	}
	if filter.Category != "" {
		where += ` AND category = ?`
		args = append(args, filter.Category)
	}
	// Plain substring match, used when no search index is configured.
	if filter.Search != "" {
		like := "%" + likeEscaper.Replace(filter.Search) + "%"
		where += ` AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM json_each(links.tags) WHERE value LIKE ? ESCAPE '\'))`
		args = append(args, like, like, like)
	}
	return where, args
}

func (r *SQLiteRepository) List(ctx context.Context, filter domain.LinkFilter) ([]domain.Link, error) {
	where, args := linkWhere(filter)
	query := `SELECT ` + linkColumns + ` FROM links` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectLinks(rows)
}

func (r *SQLiteRepository) Count(ctx context.Context, filter domain.LinkFilter) (int64, error) {
	where, args := linkWhere(filter)

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return collectLinks(rows)
}

func (r *SQLiteRepository) IncrementClicks(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE links SET click_count = click_count + 1 WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SQLiteRepository) IncrementShares(ctx context.Context, id string) (int64, bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE links SET share_count = share_count + 1 WHERE id = ? RETURNING share_count`, id,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (r *SQLiteRepository) SetCategory(ctx context.Context, ids []string, slug string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(ids)
	args = append([]any{slug, time.Now().UTC()}, args...)

	res, err := r.db.ExecContext(ctx, `UPDATE links SET category = ?, updated_at = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FillDescription only writes when the stored description is still empty.
func (r *SQLiteRepository) FillDescription(ctx context.Context, id, description string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE links SET description = ?, updated_at = ? WHERE id = ? AND description = ''`,
		description, time.Now().UTC(), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Ensure interface compliance
var (
	_ ports.LinkRepository     = (*SQLiteRepository)(nil)
	_ ports.CategoryRepository = (*SQLiteRepository)(nil)
)
