package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"ainews/internal/taxonomy"
)

type countingStore struct {
	loads int
	tax   taxonomy.Taxonomy
	err   error
}

func (s *countingStore) LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, error) {
	s.loads++
	return s.tax, s.err
}

func validTaxonomy() taxonomy.Taxonomy {
	return taxonomy.Taxonomy{
		Categories: []taxonomy.Category{{ID: "core", Title: "Core"}},
		Subcategories: map[string][]taxonomy.Subcategory{
			"core": {{ID: "llm", Title: "LLMs", CategoryID: "core"}},
		},
	}
}

func TestGetCachesSnapshot(t *testing.T) {
	store := &countingStore{tax: validTaxonomy()}
	c := New(store, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.Get(context.Background()); err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
	}
	if store.loads != 1 {
		t.Errorf("expected 1 storage load, got %d", store.loads)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	store := &countingStore{tax: validTaxonomy()}
	c := New(store, time.Minute)

	c.Get(context.Background())
	c.Invalidate()
	c.Get(context.Background())

	if store.loads != 2 {
		t.Errorf("expected reload after invalidate, got %d loads", store.loads)
	}
}

func TestGetRejectsPartialTaxonomy(t *testing.T) {
	store := &countingStore{tax: taxonomy.Taxonomy{
		Categories:    []taxonomy.Category{{ID: "core", Title: "Core"}},
		Subcategories: map[string][]taxonomy.Subcategory{},
	}}
	c := New(store, time.Minute)

	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("partial taxonomy must not be served")
	}
}

func TestGetPropagatesStoreErrors(t *testing.T) {
	store := &countingStore{err: errors.New("db down")}
	c := New(store, time.Minute)

	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("expected storage error to surface")
	}
}
