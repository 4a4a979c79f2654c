package models

import "time"

// Article is a news item returned by a NewsProvider.
// PublishedAt is in the reference frame (UTC).
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	Provider    string    `json:"provider"`
	Source      string    `json:"source"` // source URL the article was listed on
	PublishedAt time.Time `json:"published_at"`
}
