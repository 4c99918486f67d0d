package catalog

import (
	"context"
	"fmt"
	"time"

	"ainews/internal/cache"
	"ainews/internal/logger"
	"ainews/internal/taxonomy"
)

const cacheKey = "taxonomy"

// Store is the storage operation the catalog depends on.
type Store interface {
	LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, error)
}

// Catalog serves full taxonomy snapshots with a refresh-on-miss TTL
// cache. There is no background refresh: a snapshot can be stale for at
// most one TTL, which classification tolerates.
type Catalog struct {
	store Store
	cache *cache.Cache
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *Catalog {
	return &Catalog{
		store: store,
		cache: cache.New(),
		ttl:   ttl,
	}
}

// Get returns the current taxonomy snapshot, never a partial one: a
// snapshot failing validation is rejected rather than handed to the
// classifier.
func (c *Catalog) Get(ctx context.Context) (taxonomy.Taxonomy, error) {
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(taxonomy.Taxonomy), nil
	}

	tax, err := c.store.LoadTaxonomy(ctx)
	if err != nil {
		return taxonomy.Taxonomy{}, fmt.Errorf("load taxonomy: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return taxonomy.Taxonomy{}, fmt.Errorf("invalid taxonomy: %w", err)
	}

	c.cache.Set(cacheKey, tax, c.ttl)
	logger.Debug("taxonomy cached", "categories", len(tax.Categories), "ttl", c.ttl)
	return tax, nil
}

// Invalidate drops the cached snapshot so the next Get hits storage.
// Called after category CRUD changes land.
func (c *Catalog) Invalidate() {
	c.cache.Delete(cacheKey)
}
