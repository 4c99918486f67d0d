// Package ingest drives the per-source pipeline: fetch feed entries,
// skip known ones, optionally scrape content, classify, persist.
package ingest

import (
	"context"
	"fmt"
	"time"

	"ainews/internal/classify"
	"ainews/internal/feed"
	"ainews/internal/logger"
	"ainews/internal/metrics"
	"ainews/internal/news"
	"ainews/internal/taxonomy"
)

// CommitMode decides persistence granularity for one run.
type CommitMode string

const (
	// CommitPerArticle persists each entry as soon as it classifies, so
	// progress survives a mid-run provider outage.
	CommitPerArticle CommitMode = "per_article"
	// CommitBatch accumulates the whole run and writes once, atomically.
	CommitBatch CommitMode = "batch"
)

func ParseCommitMode(s string) (CommitMode, error) {
	switch CommitMode(s) {
	case CommitPerArticle, CommitBatch:
		return CommitMode(s), nil
	}
	return "", fmt.Errorf("unknown commit mode %q", s)
}

// Options configure a single run.
type Options struct {
	CutoffHours   int
	Commit        CommitMode
	ScrapeContent bool
}

// Gateway is the narrow persistence contract the orchestrator needs.
type Gateway interface {
	Exists(ctx context.Context, guid string, source news.Source) (bool, error)
	Save(ctx context.Context, article *news.Article) error
	SaveMany(ctx context.Context, articles []*news.Article) error
}

// FeedFetcher pulls normalized, cutoff-filtered entries.
type FeedFetcher interface {
	Fetch(ctx context.Context, urls []string, cutoffHours int) []feed.Entry
}

// ContentFetcher turns an article URL into markdown. Failures degrade to
// empty content, never to a dropped entry.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// TitleClassifier assigns a category pair to a title.
type TitleClassifier interface {
	Classify(ctx context.Context, title string, tax taxonomy.Taxonomy) (classify.Result, error)
}

// Catalog supplies taxonomy snapshots.
type Catalog interface {
	Get(ctx context.Context) (taxonomy.Taxonomy, error)
}

// Orchestrator runs the pipeline for each configured source. One
// orchestrator handles every source; the only source-specific state is
// its feed URL list.
type Orchestrator struct {
	feeds      map[news.Source][]string
	reader     FeedFetcher
	gateway    Gateway
	fetcher    ContentFetcher
	classifier TitleClassifier
	catalog    Catalog
}

func NewOrchestrator(
	feeds map[news.Source][]string,
	reader FeedFetcher,
	gateway Gateway,
	fetcher ContentFetcher,
	classifier TitleClassifier,
	catalog Catalog,
) (*Orchestrator, error) {
	for source, urls := range feeds {
		if len(urls) == 0 {
			return nil, fmt.Errorf("source %s has no feed URLs", source)
		}
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	return &Orchestrator{
		feeds:      feeds,
		reader:     reader,
		gateway:    gateway,
		fetcher:    fetcher,
		classifier: classifier,
		catalog:    catalog,
	}, nil
}

// Run ingests one source and returns how many articles were actually
// persisted. Feed unavailability is a skipped cycle, not an error; in
// batch mode a storage failure is fatal to the run.
func (o *Orchestrator) Run(ctx context.Context, source news.Source, opts Options) (int, error) {
	urls, ok := o.feeds[source]
	if !ok {
		return 0, fmt.Errorf("source %s not configured", source)
	}

	started := time.Now()
	entries := o.reader.Fetch(ctx, urls, opts.CutoffHours)
	if len(entries) == 0 {
		logger.Info("no new entries", "source", source)
		return 0, nil
	}
	metrics.Global.AddEntriesSeen(len(entries))

	tax, err := o.catalog.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("taxonomy snapshot for %s: %w", source, err)
	}

	persisted := 0
	var pending []*news.Article

	for _, entry := range entries {
		if ctx.Err() != nil {
			return persisted, ctx.Err()
		}

		exists, err := o.gateway.Exists(ctx, entry.GUID, source)
		if err != nil {
			if opts.Commit == CommitBatch {
				return 0, fmt.Errorf("dedup check for %s: %w", entry.GUID, err)
			}
			logger.Error("dedup check failed, skipping entry", "guid", entry.GUID, "error", err)
			continue
		}
		if exists {
			metrics.Global.IncrementDuplicates()
			continue
		}

		article, ok := o.processEntry(ctx, source, entry, tax, opts.ScrapeContent)
		if !ok {
			continue
		}

		if opts.Commit == CommitBatch {
			pending = append(pending, article)
			continue
		}

		if err := o.gateway.Save(ctx, article); err != nil {
			logger.Error("save failed, continuing", "guid", article.GUID, "source", source, "error", err)
			continue
		}
		metrics.Global.IncrementPersisted()
		persisted++
	}

	if opts.Commit == CommitBatch && len(pending) > 0 {
		if err := o.gateway.SaveMany(ctx, pending); err != nil {
			return 0, fmt.Errorf("batch save for %s: %w", source, err)
		}
		for range pending {
			metrics.Global.IncrementPersisted()
		}
		persisted = len(pending)
	}

	logger.Info("ingestion run finished",
		"source", source, "entries", len(entries), "persisted", persisted,
		"duration", time.Since(started))
	return persisted, nil
}

// processEntry scrapes and classifies a single surviving entry. A
// classification failure drops the entry for this cycle; since nothing
// was persisted, the next run will see it again.
func (o *Orchestrator) processEntry(
	ctx context.Context,
	source news.Source,
	entry feed.Entry,
	tax taxonomy.Taxonomy,
	scrapeContent bool,
) (*news.Article, bool) {
	content := ""
	if scrapeContent && o.fetcher != nil {
		text, err := o.fetcher.Fetch(ctx, entry.Link)
		if err != nil {
			metrics.Global.IncrementScrapeFailures()
			logger.Warn("content fetch failed, keeping entry without content",
				"guid", entry.GUID, "url", entry.Link, "error", err)
		} else {
			content = text
		}
	}

	result, err := o.classifier.Classify(ctx, entry.Title, tax)
	if err != nil {
		metrics.Global.IncrementClassificationFailures()
		logger.Error("classification failed, dropping entry",
			"guid", entry.GUID, "title", entry.Title, "source", source, "error", err)
		return nil, false
	}

	article := &news.Article{
		GUID:        entry.GUID,
		Source:      source,
		Title:       entry.Title,
		Description: entry.Description,
		URL:         entry.Link,
		PublishedOn: entry.PublishedAt,
		Content:     content,
		CategoryID:  result.Category.ID,
	}
	if result.Subcategory != nil {
		article.SubcategoryID = result.Subcategory.ID
	}
	return article, true
}

// RunAll ingests every configured source sequentially and returns the
// total persisted count. Per-source failures are reported but do not
// stop the remaining sources.
func (o *Orchestrator) RunAll(ctx context.Context, opts Options) int {
	total := 0
	for _, source := range news.Sources {
		if _, ok := o.feeds[source]; !ok {
			continue
		}
		count, err := o.Run(ctx, source, opts)
		if err != nil {
			metrics.Global.SetError(err.Error())
			logger.Error("source run failed", "source", source, "error", err)
			continue
		}
		total += count
	}
	return total
}
