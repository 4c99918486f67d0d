package news

import (
	"fmt"
	"time"
)

// Source is one of the fixed news origins.
type Source string

const (
	SourceGoogle     Source = "GOOGLE"
	SourceAnthropic  Source = "ANTHROPIC"
	SourceOpenAI     Source = "OPENAI"
	SourceHackernoon Source = "HACKERNOON"
)

// Sources lists all known sources in ingestion order.
var Sources = []Source{SourceOpenAI, SourceGoogle, SourceAnthropic, SourceHackernoon}

// ParseSource converts a config string into a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceGoogle, SourceAnthropic, SourceOpenAI, SourceHackernoon:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Article is a classified news item ready for persistence. Articles are
// append-only: once saved they are never mutated by the pipeline.
type Article struct {
	GUID          string
	Source        Source
	Title         string
	Description   string
	URL           string
	PublishedOn   time.Time
	Content       string // markdown, empty when scraping was skipped or failed
	CategoryID    string
	SubcategoryID string // empty when classification confidence was too low
}
