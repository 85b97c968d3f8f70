package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
	"github.com/lexhub/news-pipeline/app/source"
)

// Setting keys written after each cycle.
const (
	SettingLastCycleAt = "last_cycle_at"
	SettingLastCycle   = "last_cycle"
)

type CategoryResult struct {
	Category   string `json:"category"`
	Fetched    int    `json:"fetched"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
	Inserted   int    `json:"inserted"`
	Trimmed    int    `json:"trimmed"`
	Failed     bool   `json:"failed"`
}

type CycleResult struct {
	StartedAt  time.Time        `json:"started_at"`
	Duration   string           `json:"duration"`
	Inserted   int              `json:"inserted"`
	Categories []CategoryResult `json:"categories"`
}

// Runner executes the fetch-index-trim cycle. Cycles are serialized behind
// a mutex so a manual trigger overlapping a periodic run cannot interleave
// with it.
type Runner struct {
	configCache *news.ConfigCache
	source      source.Source
	matcher     *news.Matcher
	indexer     *Indexer
	trimmer     *Trimmer
	settingRepo database.SettingRepository
	mu          sync.Mutex
}

func NewRunner(configCache *news.ConfigCache, src source.Source, matcher *news.Matcher,
	indexer *Indexer, trimmer *Trimmer, settingRepo database.SettingRepository) *Runner {
	return &Runner{
		configCache: configCache,
		source:      src,
		matcher:     matcher,
		indexer:     indexer,
		trimmer:     trimmer,
		settingRepo: settingRepo,
	}
}

// RunCycle runs one full fetch-index-trim pass over all enabled categories,
// sequentially, and reports a best-effort summary. Failures are scoped to
// the item or category that raised them; the cycle always completes.
func (r *Runner) RunCycle(ctx context.Context) *CycleResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := time.Now().UTC()
	result := &CycleResult{StartedAt: started}

	configs := r.configCache.GetEnabledConfigs()
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		select {
		case <-ctx.Done():
			slog.Warn("Cycle stopped before completing all categories", "completed", len(result.Categories), "total", len(names))
			result.Duration = time.Since(started).String()
			return result
		default:
		}

		categoryResult := r.refreshCategory(ctx, configs[name])
		result.Inserted += categoryResult.Inserted
		result.Categories = append(result.Categories, categoryResult)
	}

	result.Duration = time.Since(started).String()
	r.storeCycleSummary(result)

	return result
}

func (r *Runner) refreshCategory(ctx context.Context, category *news.Config) CategoryResult {
	result := CategoryResult{Category: category.Name}

	items, err := r.source.Fetch(ctx, category)
	if err != nil {
		// Category-scoped failure: zero items this cycle, keep going.
		slog.Error("Source fetch failed", "category", category.Name, "source", r.source.Name(), "error", err)
		result.Failed = true
		return result
	}
	result.Fetched = len(items)

	for _, item := range items {
		select {
		case <-ctx.Done():
			slog.Warn("Category refresh interrupted", "category", category.Name)
			return result
		default:
		}

		if ok, reason := r.matcher.Run(item, category.Filters); !ok {
			slog.Debug("Item skipped", "category", category.Name, "title", item.Title, "reason", reason)
			result.Skipped++
			continue
		}

		inserted, err := r.indexer.IndexOne(ctx, category, item)
		if err != nil {
			// Item-scoped failure: log and move on to the next item.
			slog.Error("Failed to index item", "category", category.Name, "title", item.Title, "error", err)
			continue
		}

		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	deleted, err := r.trimmer.Trim(ctx, category.Name, category.Settings.RetentionLimit)
	if err != nil {
		slog.Warn("Retention trim failed", "category", category.Name, "error", err)
	} else {
		result.Trimmed = deleted
	}

	slog.Info("Category refreshed",
		"category", category.Name,
		"fetched", result.Fetched,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates,
		"inserted", result.Inserted,
		"trimmed", result.Trimmed)

	return result
}

func (r *Runner) storeCycleSummary(result *CycleResult) {
	if err := r.settingRepo.Set(SettingLastCycleAt, result.StartedAt.Format(time.RFC3339)); err != nil {
		slog.Warn("Failed to store cycle timestamp", "error", err)
	}

	summary, err := json.Marshal(result)
	if err != nil {
		slog.Warn("Failed to encode cycle summary", "error", err)
		return
	}
	if err := r.settingRepo.Set(SettingLastCycle, string(summary)); err != nil {
		slog.Warn("Failed to store cycle summary", "error", err)
	}
}
