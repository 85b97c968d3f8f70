package pipeline

import (
	"context"
	"fmt"

	"github.com/lexhub/news-pipeline/app/database"
)

// Trimmer enforces the per-category retention ceiling after an insert
// batch, deleting the oldest-by-published_at excess.
type Trimmer struct {
	articleRepo database.ArticleRepository
}

func NewTrimmer(articleRepo database.ArticleRepository) *Trimmer {
	return &Trimmer{articleRepo: articleRepo}
}

// Trim deletes articles beyond the ceiling and returns how many were
// removed. A ceiling of zero or less disables trimming.
func (t *Trimmer) Trim(ctx context.Context, category string, maxCount int) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	if maxCount <= 0 {
		return 0, nil
	}

	count, err := t.articleRepo.CountByCategory(category)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}

	if count <= maxCount {
		return 0, nil
	}

	deleted, err := t.articleRepo.DeleteOldest(category, count-maxCount)
	if err != nil {
		return 0, fmt.Errorf("failed to trim articles: %w", err)
	}

	return deleted, nil
}
