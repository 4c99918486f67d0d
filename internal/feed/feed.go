package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"ainews/internal/logger"
)

// Entry is one RSS item before classification. PublishedAt is always UTC;
// items without a parseable publish time never become entries.
type Entry struct {
	GUID        string
	Title       string
	Description string
	Link        string
	PublishedAt time.Time
}

// Reader downloads and normalizes RSS feeds.
type Reader struct {
	parser *gofeed.Parser
	now    func() time.Time // swapped in tests
}

// NewReader builds a Reader whose HTTP requests are bounded by timeout.
func NewReader(timeout time.Duration) *Reader {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Reader{parser: parser, now: time.Now}
}

// Fetch parses every URL and returns entries published within the last
// cutoffHours, in feed-encounter order. A failing or empty feed is logged
// and skipped, it never aborts the other URLs. Entries are deduplicated
// by guid within this single call; cross-run dedup happens at the store.
func (r *Reader) Fetch(ctx context.Context, urls []string, cutoffHours int) []Entry {
	cutoff := r.now().UTC().Add(-time.Duration(cutoffHours) * time.Hour)
	seen := make(map[string]bool)
	var entries []Entry
	okCount := 0

	for _, url := range urls {
		parsed, err := r.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			logger.Warn("feed parse failed", "url", url, "error", err)
			continue
		}
		okCount++

		for _, item := range parsed.Items {
			entry, ok := toEntry(item)
			if !ok {
				continue
			}
			// Inclusive bound: an item published exactly at the cutoff stays.
			if entry.PublishedAt.Before(cutoff) {
				continue
			}
			if seen[entry.GUID] {
				continue
			}
			seen[entry.GUID] = true
			entries = append(entries, entry)
		}
	}

	logger.Info("feeds fetched", "ok", okCount, "total", len(urls), "entries", len(entries))
	return entries
}

func toEntry(item *gofeed.Item) (Entry, bool) {
	if item.PublishedParsed == nil {
		// No timestamp means no safe cutoff decision; drop it.
		return Entry{}, false
	}
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		return Entry{}, false
	}
	return Entry{
		GUID:        guid,
		Title:       item.Title,
		Description: item.Description,
		Link:        item.Link,
		PublishedAt: item.PublishedParsed.UTC(),
	}, true
}
