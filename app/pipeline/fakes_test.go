package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
)

// fakeArticleRepo is an in-memory ArticleRepository shared by the pipeline
// tests. It enforces the same (category, title) uniqueness as the SQLite
// implementation.
type fakeArticleRepo struct {
	mu       sync.Mutex
	nextID   int64
	articles []database.Article

	existsErr        error
	insertErr        error
	countErr         error
	deleteErr        error
	insertFailTitles map[string]error
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		nextID:           1,
		insertFailTitles: make(map[string]error),
	}
}

func (r *fakeArticleRepo) Exists(category, title string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsErr != nil {
		return false, r.existsErr
	}
	for _, a := range r.articles {
		if a.Category == category && a.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeArticleRepo) Insert(article database.NewArticle) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return 0, false, r.insertErr
	}
	if err, ok := r.insertFailTitles[article.Title]; ok {
		return 0, false, err
	}
	for _, a := range r.articles {
		if a.Category == article.Category && a.Title == article.Title {
			return 0, false, nil
		}
	}

	id := r.nextID
	r.nextID++
	now := time.Now().UTC()
	r.articles = append(r.articles, database.Article{
		ID:               id,
		Category:         article.Category,
		Title:            article.Title,
		Content:          article.Content,
		ImageURL:         article.ImageURL,
		SourceName:       article.SourceName,
		SourceURL:        article.SourceURL,
		Status:           news.StatusPublished,
		PublishedAt:      article.PublishedAt,
		ExtractionStatus: article.ExtractionStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	return id, true, nil
}

func (r *fakeArticleRepo) CountByCategory(category string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	for _, a := range r.articles {
		if a.Category == category {
			count++
		}
	}
	return count, nil
}

func (r *fakeArticleRepo) DeleteOldest(category string, n int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if n <= 0 {
		return 0, nil
	}

	var scoped []database.Article
	for _, a := range r.articles {
		if a.Category == category {
			scoped = append(scoped, a)
		}
	}
	sort.Slice(scoped, func(i, j int) bool {
		if scoped[i].PublishedAt.Equal(scoped[j].PublishedAt) {
			return scoped[i].ID < scoped[j].ID
		}
		return scoped[i].PublishedAt.Before(scoped[j].PublishedAt)
	})
	if n > len(scoped) {
		n = len(scoped)
	}

	doomed := make(map[int64]bool, n)
	for _, a := range scoped[:n] {
		doomed[a.ID] = true
	}

	var kept []database.Article
	for _, a := range r.articles {
		if !doomed[a.ID] {
			kept = append(kept, a)
		}
	}
	r.articles = kept

	return n, nil
}

func (r *fakeArticleRepo) ListArticles(category, query string, limit int) ([]database.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []database.Article
	for _, a := range r.articles {
		if category != "" && a.Category != category {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *fakeArticleRepo) GetStats(categories []string) (*database.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &database.Stats{ByCategory: make(map[string]int)}
	for _, c := range categories {
		stats.ByCategory[c] = 0
	}
	for _, a := range r.articles {
		stats.ByCategory[a.Category]++
		stats.TotalArticles++
	}
	return stats, nil
}

func (r *fakeArticleRepo) GetArticlesForExtraction(category string, limit int) ([]database.ArticleForExtraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []database.ArticleForExtraction
	for _, a := range r.articles {
		if a.Category == category && a.ExtractionStatus == "pending" && a.SourceURL != "" {
			result = append(result, database.ArticleForExtraction{ID: a.ID, SourceURL: a.SourceURL})
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *fakeArticleRepo) UpdateExtractedContent(id int64, content string, extractedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.articles {
		if r.articles[i].ID == id {
			r.articles[i].Content = content
			r.articles[i].ExtractionStatus = "success"
			t := extractedAt
			r.articles[i].ContentExtractedAt = &t
			return nil
		}
	}
	return fmt.Errorf("article %d not found", id)
}

func (r *fakeArticleRepo) UpdateExtractionStatus(id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.articles {
		if r.articles[i].ID == id {
			r.articles[i].ExtractionStatus = status
			return nil
		}
	}
	return fmt.Errorf("article %d not found", id)
}

// fakeSource serves canned items per category, with optional per-category
// failures.
type fakeSource struct {
	mu         sync.Mutex
	items      map[string][]news.CandidateItem
	failures   map[string]error
	fetchCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		items:    make(map[string][]news.CandidateItem),
		failures: make(map[string]error),
	}
}

func (s *fakeSource) Name() string {
	return "fake"
}

func (s *fakeSource) Fetch(ctx context.Context, category *news.Config) ([]news.CandidateItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchCalls++
	if err, ok := s.failures[category.Name]; ok {
		return nil, err
	}
	return s.items[category.Name], nil
}
