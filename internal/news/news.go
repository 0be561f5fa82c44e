// Package news holds the data model shared across the ingestion pipeline.
package news

import "time"

// FeedSource describes one configured RSS feed as reported by storage.
// Read-only for the duration of a pipeline run.
type FeedSource struct {
	ID       string
	Company  string
	Category string
	FeedURL  string
}

// Entry is a single article as reported by a feed, prior to any filtering.
// Published is nil when the feed did not carry a parseable timestamp.
type Entry struct {
	Title     string
	Summary   string
	Link      string
	Published *time.Time
}

// Record is the unit persisted to storage once an entry passes the
// classification gate. Immutable after construction.
type Record struct {
	Category  string
	Title     string
	Content   string
	Company   string
	SourceURL string
	Published *time.Time
	Score     int
}
