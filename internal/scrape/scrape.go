// Package scrape turns an article URL into markdown-ish text. It stands
// behind the content-fetcher boundary: callers treat any failure as
// "no content", never as a reason to drop the article.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher downloads pages and extracts readable article text.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch gets the page and returns its content as markdown. The error is
// informational only; ingestion degrades to empty content on any failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ainews/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	content := extractContentBySource(doc, url)
	if content == "" {
		return "", fmt.Errorf("can't get content")
	}

	title := extractTitle(doc)
	if title != "" {
		return "# " + title + "\n\n" + content, nil
	}
	return content, nil
}

// extractContentBySource picks the selector list for the news site.
func extractContentBySource(doc *goquery.Document, url string) string {
	var selectors []string

	switch {
	case strings.Contains(url, "anthropic.com"):
		selectors = []string{
			".post-detail p",
			"article p",
			"main p",
		}
	case strings.Contains(url, "openai.com"):
		selectors = []string{
			".ui-richtext p",
			"article p",
			"main p",
		}
	case strings.Contains(url, "hackernoon.com"):
		selectors = []string{
			".story-content p",
			"main article p",
			"article p",
		}
	default:
		// Generic fallback, also covers Google News redirect targets
		selectors = []string{
			"article p",
			".article-body p",
			".post-content p",
			".content p",
			"main p",
		}
	}

	return cleanContent(collectParagraphs(doc, selectors))
}

// collectParagraphs tries selectors in order and keeps the first one
// that yields text.
func collectParagraphs(doc *goquery.Document, selectors []string) string {
	var paragraphs []string

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && len(text) > 10 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// cleanContent removes junk whitespace and cookie-banner remnants.
func cleanContent(content string) string {
	lines := strings.Split(content, "\n")
	var cleaned []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			cleaned = append(cleaned, "")
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "cookie") && len(line) < 120 {
			continue
		}
		if strings.HasPrefix(lower, "subscribe to") || strings.HasPrefix(lower, "sign up for") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	out := strings.Join(cleaned, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
