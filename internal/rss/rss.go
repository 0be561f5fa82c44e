// Package rss retrieves feed entries through gofeed.
package rss

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/geongi-im/news-tracker/internal/news"
)

// Fetcher retrieves the entries of one feed URL. The pipeline depends on
// this interface so tests can supply canned entries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]news.Entry, error)
}

// FeedFetcher is the production Fetcher backed by gofeed.
type FeedFetcher struct {
	parser *gofeed.Parser
}

func NewFetcher() *FeedFetcher {
	return &FeedFetcher{parser: gofeed.NewParser()}
}

func (f *FeedFetcher) Fetch(ctx context.Context, url string) ([]news.Entry, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	entries := make([]news.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, news.Entry{
			Title:     item.Title,
			Summary:   item.Description,
			Link:      item.Link,
			Published: item.PublishedParsed,
		})
	}
	return entries, nil
}
