package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"ainews/internal/catalog"
	"ainews/internal/classify"
	"ainews/internal/config"
	"ainews/internal/feed"
	"ainews/internal/gemini"
	"ainews/internal/ingest"
	"ainews/internal/llm"
	"ainews/internal/logger"
	"ainews/internal/metrics"
	"ainews/internal/news"
	"ainews/internal/ratelimit"
	"ainews/internal/retry"
	"ainews/internal/scrape"
	"ainews/internal/storage"
	"ainews/internal/taxonomy"
	"ainews/internal/titles"
	"ainews/internal/vectorindex"
)

func main() {
	logger.Init()

	// Check if we should start HTTP server for monitoring
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	feeds, err := config.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		log.Fatalf("feeds config: %v", err)
	}

	commit, err := ingest.ParseCommitMode(cfg.CommitMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	retryCfg := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}

	store, err := storage.New(ctx, cfg.DatabaseURL, retryCfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	if err := store.SeedDefaultTaxonomy(ctx); err != nil {
		log.Fatalf("seed taxonomy: %v", err)
	}

	cat := catalog.New(store, cfg.CatalogCacheTTL)
	tax, err := cat.Get(ctx)
	if err != nil {
		log.Fatalf("taxonomy: %v", err)
	}

	pool, err := llm.NewPool(cfg.Models)
	if err != nil {
		log.Fatalf("model pool: %v", err)
	}
	chat := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.RequestTimeout)
	limiter := ratelimit.New(cfg.MaxLLMRequests, cfg.LLMMinInterval)
	classifier := classify.New(chat, pool, limiter, cfg.MaxAttempts)

	sourceFeeds := map[news.Source][]string{
		news.SourceAnthropic:  feeds.Anthropic,
		news.SourceOpenAI:     feeds.OpenAI,
		news.SourceHackernoon: feeds.Hackernoon,
		news.SourceGoogle:     feeds.GoogleFeedURLs(tax.SubcategoryIDs()),
	}

	orchestrator, err := ingest.NewOrchestrator(
		sourceFeeds,
		feed.NewReader(cfg.RequestTimeout),
		store,
		scrape.NewFetcher(cfg.RequestTimeout),
		classifier,
		cat,
	)
	if err != nil {
		log.Fatalf("orchestrator: %v", err)
	}

	seedVectorIndex(ctx, cfg, retryCfg, tax)

	started := time.Now()
	total := orchestrator.RunAll(ctx, ingest.Options{
		CutoffHours:   cfg.CutoffHours,
		Commit:        commit,
		ScrapeContent: cfg.ScrapeContent,
	})
	metrics.Global.RecordRun(time.Since(started))

	logger.Info("run complete", "persisted", total, "llm_requests", limiter.Used())
}

// seedVectorIndex makes sure every subcategory has seed title records.
// Skipped entirely when the vector index or Gemini is not configured.
func seedVectorIndex(ctx context.Context, cfg *config.Config, retryCfg retry.Config, tax taxonomy.Taxonomy) {
	if cfg.PineconeAPIKey == "" || cfg.PineconeHost == "" || cfg.GeminiAPIKey == "" {
		logger.Debug("vector index seeding not configured, skipping")
		return
	}

	index, err := vectorindex.New(ctx, cfg.PineconeAPIKey, cfg.PineconeHost,
		cfg.PineconeNamespace, cfg.UpsertBatchSize, retryCfg)
	if err != nil {
		logger.Error("vector index unavailable, skipping seeding", "error", err)
		return
	}

	generator, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Error("gemini unavailable, skipping seeding", "error", err)
		return
	}
	defer generator.Close()

	seeder := titles.NewSeeder(index, generator)
	for _, category := range tax.Categories {
		for _, sub := range tax.Subcategories[category.ID] {
			if err := seeder.EnsureSeeded(ctx, sub.Title, category.Title); err != nil {
				logger.Error("seeding failed", "subcategory", sub.Title, "error", err)
			}
		}
	}
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
