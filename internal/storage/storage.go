// Package storage persists qualifying news records and answers feed and
// duplicate lookups. Two interchangeable backends exist: the news REST API
// and a direct Postgres connection.
package storage

import (
	"context"

	"github.com/geongi-im/news-tracker/internal/news"
)

// Store is the single storage collaborator the pipeline talks to.
type Store interface {
	// ActiveFeeds lists the enabled RSS feed sources.
	ActiveFeeds(ctx context.Context) ([]news.FeedSource, error)
	// ExistsBatch reports, per URL, whether an article is already stored.
	ExistsBatch(ctx context.Context, urls []string) (map[string]bool, error)
	// Exists is the per-URL fallback for ExistsBatch.
	Exists(ctx context.Context, url string) (bool, error)
	// InsertNews stores one record. Ownership transfers on success.
	InsertNews(ctx context.Context, rec news.Record) error
}
