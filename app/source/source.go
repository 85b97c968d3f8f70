package source

import (
	"context"
	"fmt"

	"github.com/lexhub/news-pipeline/app/news"
)

// Source produces candidate items for one category. Implementations are
// selected explicitly by configuration; the live fetcher is never silently
// swapped for fixture data on failure.
type Source interface {
	Name() string
	Fetch(ctx context.Context, category *news.Config) ([]news.CandidateItem, error)
}

// FetchError is a category-scoped source failure. The caller treats it as
// "zero items for this category this cycle" and continues with the other
// categories.
type FetchError struct {
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch category %s: %v", e.Category, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
