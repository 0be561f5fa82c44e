// Package dedup marks already-persisted article URLs so the pipeline skips
// them before spending a model call.
package dedup

import (
	"context"
	"log/slog"
)

// Store is the slice of the storage collaborator the checker needs.
type Store interface {
	ExistsBatch(ctx context.Context, urls []string) (map[string]bool, error)
	Exists(ctx context.Context, url string) (bool, error)
}

// Checker answers "have we seen this URL" for a batch of candidates. One
// batched query is issued; when that fails it degrades to per-URL lookups.
// The caller never sees which path was taken.
type Checker struct {
	store Store
	log   *slog.Logger
}

func NewChecker(store Store, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{store: store, log: log}
}

// Check returns exists=true for every URL already in storage. A URL whose
// per-item fallback lookup also fails is reported as existing: silently
// dropping a possibly-new article beats inserting a duplicate.
func (c *Checker) Check(ctx context.Context, urls []string) map[string]bool {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result
	}

	batch, err := c.store.ExistsBatch(ctx, urls)
	if err == nil {
		for _, u := range urls {
			result[u] = batch[u]
		}
		return result
	}

	c.log.Warn("batch duplicate check failed, falling back to per-URL lookups",
		"urls", len(urls), "error", err)

	for _, u := range urls {
		exists, err := c.store.Exists(ctx, u)
		if err != nil {
			c.log.Warn("duplicate check failed, treating URL as seen", "url", u, "error", err)
			result[u] = true
			continue
		}
		result[u] = exists
	}
	return result
}
