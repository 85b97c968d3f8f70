package database

import (
	"time"
)

type ArticleRepository interface {
	Exists(category, title string) (bool, error)
	Insert(article NewArticle) (int64, bool, error)

	CountByCategory(category string) (int, error)
	DeleteOldest(category string, n int) (int, error)

	ListArticles(category, query string, limit int) ([]Article, error)
	GetStats(categories []string) (*Stats, error)

	GetArticlesForExtraction(category string, limit int) ([]ArticleForExtraction, error)
	UpdateExtractedContent(id int64, content string, extractedAt time.Time) error
	UpdateExtractionStatus(id int64, status string) error
}

// SettingRepository is a small key-value persistence port. The SQLite
// implementation backs production; the in-memory one backs tests and demos.
type SettingRepository interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	All() (map[string]string, error)
}
