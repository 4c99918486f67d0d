// Package storage is the Postgres persistence gateway for articles and
// the category taxonomy.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"ainews/internal/logger"
	"ainews/internal/news"
	"ainews/internal/retry"
	"ainews/internal/taxonomy"
)

// Store wraps the articles and taxonomy tables.
type Store struct {
	db *sql.DB
}

// New connects, verifies the connection with bounded retries, and makes
// sure the schema exists.
func New(ctx context.Context, connectionString string, retryCfg retry.Config) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := retry.Do(ctx, retryCfg, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("postgres store connected")
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS news_categories (
		category_id TEXT PRIMARY KEY,
		title TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS news_subcategories (
		subcategory_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category_id TEXT NOT NULL REFERENCES news_categories(category_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS articles (
		guid TEXT NOT NULL,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		url TEXT NOT NULL,
		published_on TIMESTAMPTZ NOT NULL,
		markdown_content TEXT,
		category_id TEXT NOT NULL REFERENCES news_categories(category_id),
		subcategory_id TEXT REFERENCES news_subcategories(subcategory_id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (guid, source)
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published_on ON articles(published_on);
	CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
	CREATE INDEX IF NOT EXISTS idx_articles_subcategory_id ON articles(subcategory_id);
	CREATE INDEX IF NOT EXISTS idx_subcategories_category_id ON news_subcategories(category_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Exists reports whether an article with this guid was already ingested
// from this source. Both predicates are required: the same guid may
// legitimately appear under two sources.
func (s *Store) Exists(ctx context.Context, guid string, source news.Source) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM articles WHERE guid = $1 AND source = $2`,
		guid, string(source)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check article existence: %w", err)
	}
	return true, nil
}

const insertArticle = `
	INSERT INTO articles
		(guid, source, title, description, url, published_on, markdown_content, category_id, subcategory_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (guid, source) DO NOTHING
`

// Save persists one article. A concurrent run that won the race on the
// same (guid, source) is tolerated: the insert becomes a no-op and the
// duplicate is logged, not raised.
func (s *Store) Save(ctx context.Context, article *news.Article) error {
	res, err := s.db.ExecContext(ctx, insertArticle, articleArgs(article)...)
	if err != nil {
		return fmt.Errorf("save article %s: %w", article.GUID, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		logger.Warn("article already persisted, skipping", "guid", article.GUID, "source", article.Source)
	}
	return nil
}

// SaveMany persists a batch atomically: either every article lands or
// none does.
func (s *Store) SaveMany(ctx context.Context, articles []*news.Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertArticle)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, article := range articles {
		if _, err := stmt.ExecContext(ctx, articleArgs(article)...); err != nil {
			return fmt.Errorf("batch insert article %s: %w", article.GUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func articleArgs(a *news.Article) []any {
	var content, subcategory sql.NullString
	if a.Content != "" {
		content = sql.NullString{String: a.Content, Valid: true}
	}
	if a.SubcategoryID != "" {
		subcategory = sql.NullString{String: a.SubcategoryID, Valid: true}
	}
	return []any{
		a.GUID, string(a.Source), a.Title, a.Description, a.URL,
		a.PublishedOn, content, a.CategoryID, subcategory,
	}
}

// LoadTaxonomy reads the full category tree in one consistent snapshot.
func (s *Store) LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, error) {
	tax := taxonomy.Taxonomy{Subcategories: make(map[string][]taxonomy.Subcategory)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, title FROM news_categories ORDER BY category_id`)
	if err != nil {
		return tax, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c taxonomy.Category
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return tax, fmt.Errorf("scan category: %w", err)
		}
		tax.Categories = append(tax.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return tax, fmt.Errorf("iterate categories: %w", err)
	}

	subRows, err := s.db.QueryContext(ctx,
		`SELECT subcategory_id, title, category_id FROM news_subcategories ORDER BY subcategory_id`)
	if err != nil {
		return tax, fmt.Errorf("load subcategories: %w", err)
	}
	defer subRows.Close()
	for subRows.Next() {
		var sub taxonomy.Subcategory
		if err := subRows.Scan(&sub.ID, &sub.Title, &sub.CategoryID); err != nil {
			return tax, fmt.Errorf("scan subcategory: %w", err)
		}
		tax.Subcategories[sub.CategoryID] = append(tax.Subcategories[sub.CategoryID], sub)
	}
	if err := subRows.Err(); err != nil {
		return tax, fmt.Errorf("iterate subcategories: %w", err)
	}

	return tax, nil
}

// SeedDefaultTaxonomy inserts the stock taxonomy when the table is empty,
// so a fresh database can classify immediately.
func (s *Store) SeedDefaultTaxonomy(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_categories`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, c := range taxonomy.Default.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO news_categories (category_id, title) VALUES ($1, $2)`,
			c.ID, c.Title); err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
		for _, sub := range taxonomy.Default.Subcategories[c.ID] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO news_subcategories (subcategory_id, title, category_id) VALUES ($1, $2, $3)`,
				sub.ID, sub.Title, c.ID); err != nil {
				return fmt.Errorf("seed subcategory %s: %w", sub.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logger.Info("seeded default taxonomy", "categories", len(taxonomy.Default.Categories))
	return nil
}

// RecentArticles returns the newest persisted articles, mainly for
// operational spot checks.
func (s *Store) RecentArticles(ctx context.Context, limit int) ([]*news.Article, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT guid, source, title, description, url, published_on,
		       COALESCE(markdown_content, ''), category_id, COALESCE(subcategory_id, '')
		FROM articles
		ORDER BY published_on DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}
	defer rows.Close()

	var out []*news.Article
	for rows.Next() {
		var a news.Article
		var source string
		var published time.Time
		if err := rows.Scan(&a.GUID, &source, &a.Title, &a.Description, &a.URL,
			&published, &a.Content, &a.CategoryID, &a.SubcategoryID); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Source = news.Source(source)
		a.PublishedOn = published.UTC()
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
