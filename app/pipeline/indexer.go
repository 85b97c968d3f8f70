package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
)

// Indexer performs the dedupe-by-title insert of one candidate item. Once
// an article is stored the pipeline never revisits it; there is no merge or
// update path.
type Indexer struct {
	articleRepo database.ArticleRepository
}

func NewIndexer(articleRepo database.ArticleRepository) *Indexer {
	return &Indexer{articleRepo: articleRepo}
}

// IndexOne inserts the item unless an article with the same (category,
// title) already exists. Returns whether a new article was stored.
func (ix *Indexer) IndexOne(ctx context.Context, category *news.Config, item news.CandidateItem) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	title := news.TruncateRunes(news.ToValidUTF8(item.Title), news.MaxTitleRunes)
	if title == "" {
		return false, fmt.Errorf("item has no title")
	}

	exists, err := ix.articleRepo.Exists(category.Name, title)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	if exists {
		return false, nil
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	extractionStatus := ""
	if category.Settings.ExtractContent && item.SourceURL != "" {
		extractionStatus = "pending"
	}

	article := database.NewArticle{
		Category:         category.Name,
		Title:            title,
		Content:          news.TruncateRunes(news.ToValidUTF8(item.Content), news.MaxContentRunes),
		ImageURL:         cmp.Or(item.ImageURL, category.DefaultImageURL),
		SourceName:       item.SourceName,
		SourceURL:        item.SourceURL,
		PublishedAt:      publishedAt,
		ExtractionStatus: extractionStatus,
	}

	// The UNIQUE (category, title) index makes this an insert-if-absent, so
	// a concurrent run that slipped past the lookup surfaces as inserted=false
	// rather than a duplicate row.
	_, inserted, err := ix.articleRepo.Insert(article)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	return inserted, nil
}
