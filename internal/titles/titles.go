// Package titles holds the secondary pipeline around the vector index:
// seeding synthetic titles for new subcategories and classifying a raw
// title from its nearest stored neighbors.
package titles

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ainews/internal/logger"
	"ainews/internal/vectorindex"
)

// SeedTitleCount is how many synthetic titles one new subcategory gets.
const SeedTitleCount = 3

// MinHitScore mirrors the classifier's subcategory confidence floor:
// weaker neighbors carry no signal.
const MinHitScore = 0.2

// Index is the vector-store contract the seeder needs.
type Index interface {
	SubcategoryExists(ctx context.Context, subcategory string) (bool, error)
	Upsert(ctx context.Context, records []vectorindex.Record) error
}

// Generator produces synthetic titles for a topic.
type Generator interface {
	GenerateNewsTitles(ctx context.Context, topic string, count int) ([]string, error)
}

// Seeder makes sure every subcategory has seed title records. It runs
// once per newly created subcategory, not per article.
type Seeder struct {
	index     Index
	generator Generator
}

func NewSeeder(index Index, generator Generator) *Seeder {
	return &Seeder{index: index, generator: generator}
}

// EnsureSeeded is idempotent: if the subcategory already has records in
// the index, nothing is generated or written.
func (s *Seeder) EnsureSeeded(ctx context.Context, subcategoryTitle, categoryTitle string) error {
	exists, err := s.index.SubcategoryExists(ctx, subcategoryTitle)
	if err != nil {
		return fmt.Errorf("check subcategory %q: %w", subcategoryTitle, err)
	}
	if exists {
		logger.Info("subcategory already seeded, skipping", "subcategory", subcategoryTitle)
		return nil
	}

	generated, err := s.generator.GenerateNewsTitles(ctx, subcategoryTitle, SeedTitleCount)
	if err != nil {
		return fmt.Errorf("generate titles for %q: %w", subcategoryTitle, err)
	}

	records := make([]vectorindex.Record, 0, len(generated))
	for _, title := range generated {
		records = append(records, vectorindex.Record{
			ID:          uuid.NewString(),
			Title:       title,
			Category:    categoryTitle,
			Subcategory: subcategoryTitle,
		})
	}

	if err := s.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert seed records for %q: %w", subcategoryTitle, err)
	}
	logger.Info("seeded subcategory", "subcategory", subcategoryTitle, "records", len(records))
	return nil
}

// Searcher is the vector-store contract the classifier needs.
type Searcher interface {
	Search(ctx context.Context, title string, topK int) ([]vectorindex.Hit, error)
}

// Classifier assigns a category pair to a raw title from historical
// records when the structured taxonomy path is unavailable.
type Classifier struct {
	searcher Searcher
	topK     int
}

func NewClassifier(searcher Searcher, topK int) *Classifier {
	if topK <= 0 {
		topK = 10
	}
	return &Classifier{searcher: searcher, topK: topK}
}

// Classify searches the index for neighbors of the title, drops hits
// under MinHitScore, and picks the most frequent subcategory among the
// rest together with its category.
func (c *Classifier) Classify(ctx context.Context, title string) (category, subcategory string, err error) {
	hits, err := c.searcher.Search(ctx, title, c.topK)
	if err != nil {
		return "", "", fmt.Errorf("search neighbors: %w", err)
	}

	frequency := make(map[string]int)
	order := make([]string, 0, len(hits)) // deterministic tie-break: first seen wins
	for _, hit := range hits {
		if hit.Score < MinHitScore || hit.Record.Subcategory == "" {
			continue
		}
		if frequency[hit.Record.Subcategory] == 0 {
			order = append(order, hit.Record.Subcategory)
		}
		frequency[hit.Record.Subcategory]++
	}
	if len(order) == 0 {
		return "", "", fmt.Errorf("no confident neighbors for title %q", title)
	}

	best := order[0]
	for _, sub := range order[1:] {
		if frequency[sub] > frequency[best] {
			best = sub
		}
	}

	for _, hit := range hits {
		if hit.Record.Subcategory == best {
			return hit.Record.Category, best, nil
		}
	}
	return "", best, nil
}
