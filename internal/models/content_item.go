package models

import "time"

// RawRecord is what a source adapter hands to the normalizer. Only ExternalID,
// Title and URL are expected; everything else is best effort.
type RawRecord struct {
	Source       Source
	ExternalID   string
	Title        string
	URL          string
	Summary      string
	PublishedRaw string
	Engagement   *int
	CategoryHint Category
	// Channel is the sub-feed inside a source (subreddit, tag, arXiv category).
	Channel string
}

// ContentItem is a normalized piece of external content. Only Suppressed and
// DuplicateOf change after the item is stored.
type ContentItem struct {
	ID            int64     `json:"id"`
	Source        Source    `json:"source"`
	ExternalID    string    `json:"external_id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Summary       string    `json:"summary"`
	PublishedAt   time.Time `json:"published_at"`
	Category      Category  `json:"category"`
	EngagementRaw int       `json:"engagement_raw"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
	Suppressed    bool      `json:"suppressed"`
	DuplicateOf   *int64    `json:"duplicate_of,omitempty"`

	// DateFallback is set when the published date could not be parsed and
	// FetchedAt was used instead.
	DateFallback bool   `json:"date_fallback,omitempty"`
	Channel      string `json:"channel,omitempty"`
}

// RankedContent pairs an item with its composite score and weighted sub-scores.
// It is never persisted.
type RankedContent struct {
	Item       ContentItem `json:"item"`
	Score      float64     `json:"score"`
	Recency    float64     `json:"recency"`
	Engagement float64     `json:"engagement"`
	Relevance  float64     `json:"relevance"`
}
