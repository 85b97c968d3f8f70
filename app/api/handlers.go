package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
	"github.com/lexhub/news-pipeline/app/pipeline"
)

func NewHandler(articleRepo database.ArticleRepository, settingRepo database.SettingRepository,
	configCache *news.ConfigCache, scheduler pipeline.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		articleRepo: articleRepo,
		settingRepo: settingRepo,
		configCache: configCache,
		scheduler:   scheduler,
		version:     version,
	}
}

func (h *Handler) ListArticles(c *gin.Context) {
	category := c.Query("category")
	query := c.Query("q")

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	if category != "" {
		if _, err := h.configCache.GetConfig(category); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown category"})
			return
		}
	}

	articles, err := h.articleRepo.ListArticles(category, query, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}

func (h *Handler) ListCategories(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	categories := make([]map[string]interface{}, 0, len(configs))

	for _, categoryConfig := range configs {
		info := map[string]interface{}{
			"name":            categoryConfig.Name,
			"title":           categoryConfig.Title,
			"enabled":         categoryConfig.Settings.Enabled,
			"retention_limit": categoryConfig.Settings.RetentionLimit,
			"extract_content": categoryConfig.Settings.ExtractContent,
			"feeds":           len(categoryConfig.Feeds),
			"filters":         len(categoryConfig.Filters),
		}

		if count, err := h.articleRepo.CountByCategory(categoryConfig.Name); err == nil {
			info["article_count"] = count
		}

		categories = append(categories, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	if stats, err := h.articleRepo.GetStats(h.enabledCategoryNames()); err == nil {
		health["articles"] = stats.TotalArticles
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.articleRepo.GetStats(h.enabledCategoryNames())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"total_articles": stats.TotalArticles,
		"by_category":    stats.ByCategory,
	}

	settings, err := h.settingRepo.All()
	if err != nil {
		slog.Warn("Failed to read settings", "error", err)
		settings = map[string]string{}
	}

	// Prefer the recorded cycle timestamp; fall back to the newest article.
	if raw, ok := settings[pipeline.SettingLastCycleAt]; ok {
		response["last_update"] = raw
	} else if stats.LastUpdate != nil {
		response["last_update"] = stats.LastUpdate.Format(time.RFC3339)
	} else {
		response["last_update"] = nil
	}

	if raw, ok := settings[pipeline.SettingLastCycle]; ok {
		response["last_cycle"] = json.RawMessage(raw)
	}

	c.JSON(http.StatusOK, response)
}

// TriggerRefresh runs a full refresh cycle synchronously and reports how
// many new articles it added. Overlapping triggers queue up behind the
// in-flight cycle rather than running concurrently.
func (h *Handler) TriggerRefresh(c *gin.Context) {
	result := h.scheduler.RunNow(c.Request.Context())

	failed := 0
	for _, categoryResult := range result.Categories {
		if categoryResult.Failed {
			failed++
		}
	}

	success := len(result.Categories) > 0 && failed < len(result.Categories)

	message := "Refresh cycle completed successfully"
	switch {
	case len(result.Categories) == 0:
		message = "No enabled categories configured"
	case failed == len(result.Categories):
		message = "Refresh cycle failed: no category could be fetched"
	case failed > 0:
		message = "Refresh cycle completed with errors: " + strconv.Itoa(failed) + " of " + strconv.Itoa(len(result.Categories)) + " categories failed"
	}

	status := http.StatusOK
	if !success {
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"success":        success,
		"message":        message,
		"articles_added": result.Inserted,
		"duration":       result.Duration,
		"categories":     result.Categories,
	})
}

func (h *Handler) enabledCategoryNames() []string {
	configs := h.configCache.GetEnabledConfigs()
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	return names
}

// authMiddleware guards mutating API endpoints.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
