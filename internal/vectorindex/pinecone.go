// Package vectorindex is the gate to the Pinecone index holding
// (title, category, subcategory) seed records with integrated embedding.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"

	"ainews/internal/logger"
	"ainews/internal/retry"
)

// Record is one stored title with its category pair.
type Record struct {
	ID          string
	Title       string
	Category    string
	Subcategory string
}

// Hit is one ranked search result.
type Hit struct {
	ID     string
	Score  float64
	Record Record
}

// Client wraps one index connection. Upserts are chunked to the
// provider's per-request record limit and retried with backoff.
type Client struct {
	conn      *pinecone.IndexConnection
	batchSize int
	retryCfg  retry.Config
}

func New(ctx context.Context, apiKey, host, namespace string, batchSize int, retryCfg retry.Config) (*Client, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("upsert batch size must be positive")
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("connect to index: %w", err)
	}

	return &Client{conn: conn, batchSize: batchSize, retryCfg: retryCfg}, nil
}

// SubcategoryExists reports whether any seed record is already filed
// under the subcategory, via a filtered semantic search.
func (c *Client) SubcategoryExists(ctx context.Context, subcategory string) (bool, error) {
	res, err := c.conn.SearchRecords(ctx, &pinecone.SearchRecordsRequest{
		Query: pinecone.SearchRecordsQuery{
			TopK:   1,
			Inputs: &map[string]interface{}{"text": subcategory},
			Filter: &map[string]interface{}{"subcategory": subcategory},
		},
		Fields: &[]string{"subcategory"},
	})
	if err != nil {
		return false, fmt.Errorf("subcategory existence search: %w", err)
	}
	return len(res.Result.Hits) > 0, nil
}

// Search returns the topK records closest to the title.
func (c *Client) Search(ctx context.Context, title string, topK int) ([]Hit, error) {
	res, err := c.conn.SearchRecords(ctx, &pinecone.SearchRecordsRequest{
		Query: pinecone.SearchRecordsQuery{
			TopK:   int32(topK),
			Inputs: &map[string]interface{}{"text": title},
		},
		Fields: &[]string{"title", "category", "subcategory"},
	})
	if err != nil {
		return nil, fmt.Errorf("title search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Result.Hits))
	for _, h := range res.Result.Hits {
		hits = append(hits, Hit{
			ID:    h.Id,
			Score: float64(h.Score),
			Record: Record{
				ID:          h.Id,
				Title:       stringField(h.Fields, "title"),
				Category:    stringField(h.Fields, "category"),
				Subcategory: stringField(h.Fields, "subcategory"),
			},
		})
	}
	return hits, nil
}

// Upsert stores records in chunks no larger than the configured batch
// size, retrying each chunk independently.
func (c *Client) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	logger.Info("upserting records to vector index", "count", len(records))

	for _, batch := range chunkRecords(records, c.batchSize) {
		wire := make([]*pinecone.IntegratedRecord, 0, len(batch))
		for _, r := range batch {
			wire = append(wire, &pinecone.IntegratedRecord{
				"_id":         r.ID,
				"title":       r.Title,
				"category":    r.Category,
				"subcategory": r.Subcategory,
			})
		}
		err := retry.Do(ctx, c.retryCfg, func() error {
			return c.conn.UpsertRecords(ctx, wire)
		})
		if err != nil {
			return fmt.Errorf("upsert batch of %d: %w", len(batch), err)
		}
	}
	return nil
}

// chunkRecords splits records into slices of at most size elements.
func chunkRecords(records []Record, size int) [][]Record {
	var chunks [][]Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
