package news

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw RSS/Atom data from one outlet into candidate items.
// outletName overrides the feed's own title when configured.
func (p *Parser) Run(data []byte, outletName string) ([]CandidateItem, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	sourceName := cmp.Or(outletName, feed.Title)

	var feedImageURL string
	if feed.Image != nil {
		feedImageURL = feed.Image.URL
	}

	items := make([]CandidateItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item, sourceName, feedImageURL))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, sourceName, feedImageURL string) CandidateItem {
	candidate := CandidateItem{
		Title:      strings.TrimSpace(item.Title),
		Content:    cmp.Or(item.Content, item.Description),
		SourceURL:  item.Link,
		SourceName: sourceName,
	}

	if item.PublishedParsed != nil {
		candidate.PublishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		candidate.PublishedAt = item.UpdatedParsed.UTC()
	} else {
		candidate.PublishedAt = time.Now().UTC()
	}

	candidate.ImageURL = cmp.Or(p.extractImageURL(item), feedImageURL)

	return candidate
}

func (p *Parser) extractImageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	// Fall back to the first image enclosure (RSS 2.0 allows one per item)
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	return ""
}
