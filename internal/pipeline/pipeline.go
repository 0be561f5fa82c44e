// Package pipeline orchestrates one ingestion run: fetch each active feed,
// filter and dedupe its entries, score survivors with the AI provider, and
// persist everything that clears the gate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/geongi-im/news-tracker/internal/ai"
	"github.com/geongi-im/news-tracker/internal/dedup"
	"github.com/geongi-im/news-tracker/internal/filter"
	"github.com/geongi-im/news-tracker/internal/metrics"
	"github.com/geongi-im/news-tracker/internal/news"
	"github.com/geongi-im/news-tracker/internal/prompt"
	"github.com/geongi-im/news-tracker/internal/ratelimit"
	"github.com/geongi-im/news-tracker/internal/rss"
	"github.com/geongi-im/news-tracker/internal/sanitize"
	"github.com/geongi-im/news-tracker/internal/storage"
)

// Classifier is the slice of the AI client the pipeline uses.
type Classifier interface {
	Classify(ctx context.Context, req ai.Request) (ai.Response, error)
}

// ContentExtractor optionally upgrades a thin feed summary to the scraped
// article body before persisting.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Settings are the per-run tunables.
type Settings struct {
	Template       string
	ScoreThreshold int
	Window         time.Duration
	PhotoMarker    string
}

type Pipeline struct {
	store      storage.Store
	fetcher    rss.Fetcher
	classifier Classifier
	checker    *dedup.Checker
	extractor  ContentExtractor
	limiter    *ratelimit.Limiter
	settings   Settings
	log        *slog.Logger

	// now is swappable so tests can pin the recency window.
	now func() time.Time
}

func New(store storage.Store, fetcher rss.Fetcher, classifier Classifier, checker *dedup.Checker, settings Settings, log *slog.Logger) *Pipeline {
	if settings.Window <= 0 {
		settings.Window = filter.DefaultWindow
	}
	if settings.PhotoMarker == "" {
		settings.PhotoMarker = filter.DefaultPhotoMarker
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		store:      store,
		fetcher:    fetcher,
		classifier: classifier,
		checker:    checker,
		settings:   settings,
		log:        log,
		now:        time.Now,
	}
}

// WithExtractor enables full-content scrape enrichment.
func (p *Pipeline) WithExtractor(e ContentExtractor) *Pipeline {
	p.extractor = e
	return p
}

// WithLimiter caps the AI requests spent in one run.
func (p *Pipeline) WithLimiter(l *ratelimit.Limiter) *Pipeline {
	p.limiter = l
	return p
}

// Run processes every active feed sequentially. Feed-level failures are
// logged and skipped; only the inability to list feeds (or cancellation)
// aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.now()

	feeds, err := p.store.ActiveFeeds(ctx)
	if err != nil {
		return fmt.Errorf("list active feeds: %w", err)
	}
	p.log.Info("starting ingestion run", "feeds", len(feeds))

	for _, src := range feeds {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.processFeed(ctx, src); err != nil {
			metrics.Global.IncrementFeedsFailed()
			p.log.Error("feed skipped", "company", src.Company, "category", src.Category, "error", err)
			continue
		}
		metrics.Global.IncrementFeedsProcessed()
	}

	metrics.Global.RecordRun(p.now().Sub(start))
	p.log.Info("ingestion run finished", "duration", p.now().Sub(start))
	return nil
}

func (p *Pipeline) processFeed(ctx context.Context, src news.FeedSource) error {
	entries, err := p.fetcher.Fetch(ctx, src.FeedURL)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	metrics.Global.AddEntriesSeen(len(entries))
	p.log.Info("processing feed", "company", src.Company, "category", src.Category, "entries", len(entries))

	sortByPublishedDesc(entries)

	candidates := p.stageOne(entries)
	candidates = p.stageTwo(ctx, candidates)

	for i, entry := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.limiter != nil && !p.limiter.Acquire() {
			p.log.Warn("AI budget exhausted, skipping remaining entries",
				"company", src.Company, "remaining", len(candidates)-i)
			return nil
		}
		if err := p.processEntry(ctx, src, entry); err != nil {
			// Entry isolation: one bad entry must not abort the feed.
			p.log.Error("entry skipped", "title", titlePrefix(entry.Title), "error", err)
		}
	}
	return nil
}

// stageOne applies the pure filters: recency window and the photo-article
// heuristic. No I/O.
func (p *Pipeline) stageOne(entries []news.Entry) []news.Entry {
	now := p.now()
	kept := make([]news.Entry, 0, len(entries))
	for _, e := range entries {
		if !filter.IsRecent(e.Published, now, p.settings.Window) {
			metrics.Global.IncrementStaleFiltered()
			continue
		}
		if filter.IsPhotoOnly(e.Title, e.Summary, p.settings.PhotoMarker) {
			metrics.Global.IncrementPhotoFiltered()
			p.log.Debug("photo article skipped", "title", titlePrefix(e.Title))
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// stageTwo drops entries whose URL is already stored, using one batched
// existence query.
func (p *Pipeline) stageTwo(ctx context.Context, entries []news.Entry) []news.Entry {
	if len(entries) == 0 {
		return entries
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, e.Link)
	}
	existing := p.checker.Check(ctx, urls)

	kept := make([]news.Entry, 0, len(entries))
	for _, e := range entries {
		if existing[e.Link] {
			metrics.Global.IncrementDuplicatesFiltered()
			p.log.Debug("duplicate skipped", "title", titlePrefix(e.Title))
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (p *Pipeline) processEntry(ctx context.Context, src news.FeedSource, entry news.Entry) error {
	summary := sanitize.Normalize(entry.Summary)

	resp, err := p.classifier.Classify(ctx, ai.Request{
		Template: p.settings.Template,
		Fields: []prompt.Field{
			{Key: "category", Value: src.Category},
			{Key: "title", Value: entry.Title},
			{Key: "summary", Value: summary},
		},
	})
	if err != nil {
		metrics.Global.IncrementClassificationsFailed()
		return fmt.Errorf("classify: %w", err)
	}

	if resp.Kind == ai.KindFailed {
		metrics.Global.IncrementClassificationsFailed()
	} else {
		metrics.Global.IncrementClassificationsOK()
	}

	if !ShouldPersist(resp, p.settings.ScoreThreshold, p.log, entry.Title) {
		return nil
	}
	score, err := resp.TotalScore()
	if err != nil {
		return fmt.Errorf("read score: %w", err)
	}
	p.log.Info("entry accepted", "title", titlePrefix(entry.Title), "score", score)

	rec := news.Record{
		Category:  src.Category,
		Title:     entry.Title,
		Content:   p.recordContent(ctx, entry, summary),
		Company:   src.Company,
		SourceURL: entry.Link,
		Published: entry.Published,
		Score:     score,
	}

	if err := p.store.InsertNews(ctx, rec); err != nil {
		metrics.Global.IncrementPersistFailures()
		return fmt.Errorf("persist: %w", err)
	}
	metrics.Global.IncrementRecordsPersisted()
	return nil
}

// recordContent returns the text stored with the record: the normalized
// summary, or the scraped article body when enrichment is enabled and
// yields more.
func (p *Pipeline) recordContent(ctx context.Context, entry news.Entry, summary string) string {
	if p.extractor == nil {
		return summary
	}
	full, err := p.extractor.Extract(ctx, entry.Link)
	if err != nil {
		p.log.Debug("scrape failed, keeping summary", "url", entry.Link, "error", err)
		return summary
	}
	if len(full) <= len(summary) {
		return summary
	}
	return full
}

// sortByPublishedDesc orders entries most recent first. Entries without a
// timestamp sort last; ties keep the original feed order.
func sortByPublishedDesc(entries []news.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return pubTime(entries[i]).After(pubTime(entries[j]))
	})
}

func pubTime(e news.Entry) time.Time {
	if e.Published == nil {
		return time.Time{}
	}
	return *e.Published
}
