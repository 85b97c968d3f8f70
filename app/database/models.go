package database

import (
	"time"
)

type Article struct {
	ID                 int64      `json:"id"`
	Category           string     `json:"category"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	ImageURL           string     `json:"image_url"`
	SourceName         string     `json:"source_name"`
	SourceURL          string     `json:"source_url"`
	Status             string     `json:"status"`
	IsFeatured         bool       `json:"is_featured"`
	PublishedAt        time.Time  `json:"published_at"`
	ExtractionStatus   string     `json:"extraction_status,omitempty"`
	ContentExtractedAt *time.Time `json:"content_extracted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewArticle carries the pipeline-supplied fields of an insert; the store
// fills id, status, timestamps.
type NewArticle struct {
	Category         string
	Title            string
	Content          string
	ImageURL         string
	SourceName       string
	SourceURL        string
	PublishedAt      time.Time
	ExtractionStatus string
}

type Stats struct {
	TotalArticles int
	ByCategory    map[string]int
	LastUpdate    *time.Time
}

// ArticleForExtraction identifies a stored article awaiting content
// extraction.
type ArticleForExtraction struct {
	ID        int64
	SourceURL string
}
