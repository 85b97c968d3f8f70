package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// Exists reports whether a pipeline-visible article with the exact
// (category, title) pair is already stored.
func (r *SQLArticleRepository) Exists(category, title string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM articles WHERE category = ? AND title = ? LIMIT 1
	`, category, title).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}

	return true, nil
}

// Insert stores a new article. The UNIQUE (category, title) index plus
// INSERT OR IGNORE makes the operation an atomic insert-if-absent, so
// overlapping runs cannot double-insert; the second return value reports
// whether a row was actually written.
func (r *SQLArticleRepository) Insert(article NewArticle) (int64, bool, error) {
	now := time.Now().UTC()

	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO articles (
			category, title, content, image_url, source_name, source_url,
			status, is_featured, published_at, extraction_status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 'published', 0, ?, ?, ?, ?)
	`, article.Category, article.Title, article.Content, article.ImageURL,
		article.SourceName, article.SourceURL, article.PublishedAt.UTC(),
		article.ExtractionStatus, now, now)

	if err != nil {
		return 0, false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return id, true, nil
}

func (r *SQLArticleRepository) CountByCategory(category string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE category = ?", category).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// DeleteOldest removes the n oldest articles of a category, ordered by
// published_at ascending. Ties fall back to insertion order.
func (r *SQLArticleRepository) DeleteOldest(category string, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	res, err := r.db.Exec(`
		DELETE FROM articles WHERE id IN (
			SELECT id FROM articles
			WHERE category = ?
			ORDER BY published_at ASC, id ASC
			LIMIT ?
		)
	`, category, n)
	if err != nil {
		return 0, fmt.Errorf("failed to delete oldest articles: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return int(affected), nil
}

// ListArticles returns published articles, newest first, optionally scoped
// to a category and filtered by a case-insensitive substring query.
func (r *SQLArticleRepository) ListArticles(category, query string, limit int) ([]Article, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	sqlQuery := `
		SELECT id, category, title, content, image_url, source_name, source_url,
		       status, is_featured, published_at, extraction_status,
		       content_extracted_at, created_at, updated_at
		FROM articles
		WHERE status = 'published'`
	args := []interface{}{}

	if category != "" {
		sqlQuery += " AND category = ?"
		args = append(args, category)
	}
	if query != "" {
		sqlQuery += " AND (title LIKE '%' || ? || '%' OR content LIKE '%' || ? || '%')"
		args = append(args, query, query)
	}

	sqlQuery += " ORDER BY published_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// GetStats aggregates totals per category. Configured categories with no
// stored articles appear with a zero count.
func (r *SQLArticleRepository) GetStats(categories []string) (*Stats, error) {
	stats := &Stats{
		ByCategory: make(map[string]int, len(categories)),
	}
	for _, category := range categories {
		stats.ByCategory[category] = 0
	}

	rows, err := r.db.Query(`
		SELECT category, COUNT(*) FROM articles GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get article stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByCategory[category] = count
		stats.TotalArticles += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats rows: %w", err)
	}

	// Select the column directly instead of MAX(created_at): SQLite drops
	// the declared column type on aggregate expressions, so the driver
	// would return a raw string that cannot be scanned into a time.Time.
	var lastUpdate time.Time
	err = r.db.QueryRow("SELECT created_at FROM articles ORDER BY created_at DESC LIMIT 1").Scan(&lastUpdate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last update time: %w", err)
	}
	if err == nil {
		stats.LastUpdate = &lastUpdate
	}

	return stats, nil
}

func (r *SQLArticleRepository) GetArticlesForExtraction(category string, limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, source_url FROM articles
		WHERE category = ?
		  AND extraction_status = 'pending'
		  AND source_url != ''
		ORDER BY published_at DESC
		LIMIT ?
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for extraction: %w", err)
	}
	defer rows.Close()

	var articles []ArticleForExtraction
	for rows.Next() {
		var article ArticleForExtraction
		if err := rows.Scan(&article.ID, &article.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return articles, nil
}

func (r *SQLArticleRepository) UpdateExtractedContent(id int64, content string, extractedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = ?, extraction_status = 'success',
		    content_extracted_at = ?, updated_at = ?
		WHERE id = ?
	`, content, extractedAt.UTC(), time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func (r *SQLArticleRepository) UpdateExtractionStatus(id int64, status string) error {
	_, err := r.db.Exec(`
		UPDATE articles SET extraction_status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}

func scanArticle(rows *sql.Rows) (Article, error) {
	var article Article
	var isFeatured int
	var extractedAt sql.NullTime

	err := rows.Scan(
		&article.ID, &article.Category, &article.Title, &article.Content,
		&article.ImageURL, &article.SourceName, &article.SourceURL,
		&article.Status, &isFeatured, &article.PublishedAt,
		&article.ExtractionStatus, &extractedAt,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return Article{}, fmt.Errorf("failed to scan article row: %w", err)
	}

	article.IsFeatured = isFeatured != 0
	if extractedAt.Valid {
		t := extractedAt.Time
		article.ContentExtractedAt = &t
	}

	return article, nil
}
