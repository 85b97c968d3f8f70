package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexhub/news-pipeline/app/news"
)

// FeedSource fetches candidate items from the RSS/Atom outlets configured
// for a category. A failing outlet is logged and skipped; the fetch only
// fails as a whole when every outlet failed and nothing was collected.
type FeedSource struct {
	httpClient *http.Client
	parser     *news.Parser
	userAgent  string
}

func NewFeedSource(httpClient *http.Client, parser *news.Parser, userAgent string) *FeedSource {
	return &FeedSource{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
	}
}

func (s *FeedSource) Name() string {
	return "live"
}

func (s *FeedSource) Fetch(ctx context.Context, category *news.Config) ([]news.CandidateItem, error) {
	if len(category.Feeds) == 0 {
		return nil, &FetchError{Category: category.Name, Err: fmt.Errorf("no outlet feeds configured")}
	}

	var items []news.CandidateItem
	var lastErr error
	failedOutlets := 0

	for _, outlet := range category.Feeds {
		select {
		case <-ctx.Done():
			return nil, &FetchError{Category: category.Name, Err: ctx.Err()}
		default:
		}

		data, err := s.fetchOutlet(ctx, outlet.URL, category.Settings.Timeout)
		if err != nil {
			slog.Warn("Outlet fetch failed", "category", category.Name, "outlet", outlet.URL, "error", err)
			failedOutlets++
			lastErr = err
			continue
		}

		outletItems, err := s.parser.Run(data, outlet.Name)
		if err != nil {
			slog.Warn("Outlet parse failed", "category", category.Name, "outlet", outlet.URL, "error", err)
			failedOutlets++
			lastErr = err
			continue
		}

		items = append(items, outletItems...)
	}

	if len(items) == 0 && failedOutlets == len(category.Feeds) {
		return nil, &FetchError{Category: category.Name, Err: lastErr}
	}

	return items, nil
}

func (s *FeedSource) fetchOutlet(ctx context.Context, url string, timeoutSeconds int) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
