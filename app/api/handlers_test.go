package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
	"github.com/lexhub/news-pipeline/app/pipeline"
)

type fakeArticleRepo struct {
	articles []database.Article
	stats    *database.Stats
}

func (r *fakeArticleRepo) Exists(category, title string) (bool, error) { return false, nil }
func (r *fakeArticleRepo) Insert(article database.NewArticle) (int64, bool, error) {
	return 0, false, nil
}
func (r *fakeArticleRepo) CountByCategory(category string) (int, error) {
	count := 0
	for _, a := range r.articles {
		if a.Category == category {
			count++
		}
	}
	return count, nil
}
func (r *fakeArticleRepo) DeleteOldest(category string, n int) (int, error) { return 0, nil }
func (r *fakeArticleRepo) ListArticles(category, query string, limit int) ([]database.Article, error) {
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
	if r.stats != nil {
		return r.stats, nil
	}
	return &database.Stats{ByCategory: map[string]int{}}, nil
}
func (r *fakeArticleRepo) GetArticlesForExtraction(category string, limit int) ([]database.ArticleForExtraction, error) {
	return nil, nil
}
func (r *fakeArticleRepo) UpdateExtractedContent(id int64, content string, extractedAt time.Time) error {
	return nil
}
func (r *fakeArticleRepo) UpdateExtractionStatus(id int64, status string) error { return nil }

type fakeScheduler struct {
	result   *pipeline.CycleResult
	runCalls int
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}
func (s *fakeScheduler) EnqueueTask(task pipeline.TaskInterface) error {
	return nil
}
func (s *fakeScheduler) RunNow(ctx context.Context) *pipeline.CycleResult {
	s.runCalls++
	return s.result
}

func testConfigCache(t *testing.T) *news.ConfigCache {
	t.Helper()

	dir := t.TempDir()
	content := `
title: "Imigração"
feeds:
  - name: "Outlet"
    url: "https://example.com/rss"
settings:
  enabled: true
`
	if err := os.WriteFile(filepath.Join(dir, "imigracao.yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write category file: %v", err)
	}

	cache := news.NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}
	return cache
}

func testServer(t *testing.T, repo *fakeArticleRepo, scheduler *fakeScheduler, apiKey string) *gin.Engine {
	t.Helper()

	handler := NewHandler(repo, database.NewMemorySettingRepository(), testConfigCache(t), scheduler, "test")
	return NewServer(handler, apiKey)
}

func doRequest(server *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestTriggerRefresh_RequiresAPIKey(t *testing.T) {
	scheduler := &fakeScheduler{result: &pipeline.CycleResult{}}
	server := testServer(t, &fakeArticleRepo{}, scheduler, "secret")

	w := doRequest(server, "POST", "/api/refresh", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/refresh", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}

	if scheduler.runCalls != 0 {
		t.Errorf("Unauthorized requests must not trigger a cycle, got %d calls", scheduler.runCalls)
	}
}

func TestTriggerRefresh_Success(t *testing.T) {
	scheduler := &fakeScheduler{
		result: &pipeline.CycleResult{
			Inserted: 7,
			Duration: "1.2s",
			Categories: []pipeline.CategoryResult{
				{Category: "imigracao", Fetched: 10, Inserted: 7, Duplicates: 3},
			},
		},
	}
	server := testServer(t, &fakeArticleRepo{}, scheduler, "secret")

	w := doRequest(server, "POST", "/api/refresh", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body["success"] != true {
		t.Errorf("Expected success=true, got %v", body["success"])
	}
	if body["articles_added"] != float64(7) {
		t.Errorf("Expected articles_added=7, got %v", body["articles_added"])
	}
	if scheduler.runCalls != 1 {
		t.Errorf("Expected one cycle run, got %d", scheduler.runCalls)
	}
}

func TestTriggerRefresh_BearerToken(t *testing.T) {
	scheduler := &fakeScheduler{
		result: &pipeline.CycleResult{
			Categories: []pipeline.CategoryResult{{Category: "imigracao"}},
		},
	}
	server := testServer(t, &fakeArticleRepo{}, scheduler, "secret")

	w := doRequest(server, "POST", "/api/refresh", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestTriggerRefresh_AllCategoriesFailed(t *testing.T) {
	scheduler := &fakeScheduler{
		result: &pipeline.CycleResult{
			Categories: []pipeline.CategoryResult{
				{Category: "imigracao", Failed: true},
			},
		},
	}
	server := testServer(t, &fakeArticleRepo{}, scheduler, "secret")

	w := doRequest(server, "POST", "/api/refresh", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 when every category fails, got %d", w.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["success"] != false {
		t.Errorf("Expected success=false, got %v", body["success"])
	}
}

func TestListArticles(t *testing.T) {
	repo := &fakeArticleRepo{
		articles: []database.Article{
			{ID: 1, Category: "imigracao", Title: "Artigo um", Status: "published"},
			{ID: 2, Category: "imigracao", Title: "Artigo dois", Status: "published"},
		},
	}
	server := testServer(t, repo, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/articles?category=imigracao", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Articles []database.Article `json:"articles"`
		Total    int                `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Total != 2 {
		t.Errorf("Expected 2 articles, got %d", body.Total)
	}
}

func TestListArticles_UnknownCategory(t *testing.T) {
	server := testServer(t, &fakeArticleRepo{}, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/articles?category=missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown category, got %d", w.Code)
	}
}

func TestListArticles_InvalidLimit(t *testing.T) {
	server := testServer(t, &fakeArticleRepo{}, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/articles?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", w.Code)
	}
}

func TestListCategories(t *testing.T) {
	server := testServer(t, &fakeArticleRepo{}, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Categories []map[string]interface{} `json:"categories"`
		Total      int                      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("Expected 1 category, got %d", body.Total)
	}
	if body.Categories[0]["name"] != "imigracao" {
		t.Errorf("Unexpected category name: %v", body.Categories[0]["name"])
	}
}

func TestGetStats(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeArticleRepo{
		stats: &database.Stats{
			TotalArticles: 5,
			ByCategory:    map[string]int{"imigracao": 5},
			LastUpdate:    &now,
		},
	}
	server := testServer(t, repo, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["total_articles"] != float64(5) {
		t.Errorf("Expected total_articles=5, got %v", body["total_articles"])
	}
	if body["last_update"] != "2024-06-01T12:00:00Z" {
		t.Errorf("Expected fallback to newest article time, got %v", body["last_update"])
	}
}

func TestGetStats_PrefersRecordedCycle(t *testing.T) {
	newest := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeArticleRepo{
		stats: &database.Stats{
			TotalArticles: 2,
			ByCategory:    map[string]int{"imigracao": 2},
			LastUpdate:    &newest,
		},
	}

	settings := database.NewMemorySettingRepository()
	settings.Set(pipeline.SettingLastCycleAt, "2024-06-02T06:00:00Z")
	settings.Set(pipeline.SettingLastCycle, `{"inserted":2}`)

	handler := NewHandler(repo, settings, testConfigCache(t), &fakeScheduler{}, "test")
	server := NewServer(handler, "")

	w := doRequest(server, "GET", "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body["last_update"] != "2024-06-02T06:00:00Z" {
		t.Errorf("Recorded cycle timestamp should win over article time, got %v", body["last_update"])
	}

	lastCycle, ok := body["last_cycle"].(map[string]interface{})
	if !ok {
		t.Fatalf("last_cycle should be embedded JSON, got %T", body["last_cycle"])
	}
	if lastCycle["inserted"] != float64(2) {
		t.Errorf("Unexpected cycle summary: %v", lastCycle)
	}
}

func TestGetHealth(t *testing.T) {
	server := testServer(t, &fakeArticleRepo{}, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestRootEndpoint(t *testing.T) {
	server := testServer(t, &fakeArticleRepo{}, &fakeScheduler{}, "")

	w := doRequest(server, "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["service"] != "LexHub News" {
		t.Errorf("Unexpected service name: %v", body["service"])
	}
}
