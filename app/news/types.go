package news

import (
	"time"
)

// Article status values produced by the pipeline. Other statuses (draft,
// archived) are only ever set through manual admin edits.
const StatusPublished = "published"

// CandidateItem is an article-shaped payload produced by a source, not yet
// persisted.
type CandidateItem struct {
	Title       string
	Content     string
	PublishedAt time.Time
	SourceURL   string
	SourceName  string
	ImageURL    string
}

// Configuration types

type Config struct {
	Name            string         // Derived from filename (without .yml extension)
	Title           string         `yaml:"title"`
	DefaultImageURL string         `yaml:"default_image_url"`
	Feeds           []FeedRef      `yaml:"feeds"`
	Settings        ConfigSettings `yaml:"settings"`
	Filters         []ConfigFilter `yaml:"filters"`
}

// FeedRef points at one outlet feed contributing to a category.
type FeedRef struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	RetentionLimit int  `yaml:"retention_limit"` // max stored articles per category
	Timeout        int  `yaml:"timeout"`         // seconds, per outlet request
	ExtractContent bool `yaml:"extract_content"` // enable content extraction
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
