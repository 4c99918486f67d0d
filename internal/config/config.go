package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the ingestion service.
type Config struct {
	// Storage settings
	DatabaseURL string

	// Chat-completion provider settings (OpenAI-compatible endpoint)
	LLMAPIURL      string
	LLMAPIKey      string
	Models         []string // ordered fallback pool, first entry is the default
	MaxAttempts    int      // attempt cap per classification, 0 = pool size
	MaxLLMRequests int      // per-run request budget, 0 = unlimited
	LLMMinInterval time.Duration

	// Gemini settings (seed-title generation only)
	GeminiAPIKey string

	// Vector index settings
	PineconeAPIKey    string
	PineconeHost      string
	PineconeIndex     string
	PineconeNamespace string
	UpsertBatchSize   int // provider request-size limit per upsert call
	SearchTopK        int

	// Ingestion settings
	FeedsConfigPath string
	CutoffHours     int
	CommitMode      string // "per_article" or "batch"
	ScrapeContent   bool

	// App settings
	RequestTimeout  time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	CatalogCacheTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		LLMAPIURL:         "https://api.groq.com/openai/v1",
		MaxAttempts:       0,
		MaxLLMRequests:    0,
		LLMMinInterval:    time.Second,
		PineconeIndex:     "ai-news-system",
		PineconeNamespace: "title-category-namespace",
		UpsertBatchSize:   96,
		SearchTopK:        10,
		FeedsConfigPath:   "configs/feeds.yaml",
		CutoffHours:       24,
		CommitMode:        "per_article",
		ScrapeContent:     false,
		RequestTimeout:    30 * time.Second,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
		CatalogCacheTTL:   15 * time.Minute,
	}

	// Load from environment
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.PineconeAPIKey = os.Getenv("PINECONE_API_KEY")
	cfg.PineconeHost = os.Getenv("PINECONE_HOST")

	if v := os.Getenv("LLM_API_URL"); v != "" {
		cfg.LLMAPIURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("LLM_MODELS"); v != "" {
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Models = append(cfg.Models, m)
			}
		}
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{
			"openai/gpt-oss-120b",
			"openai/gpt-oss-20b",
			"llama-3.3-70b-versatile",
			"moonshotai/kimi-k2-instruct-0905",
			"qwen/qwen3-32b",
		}
	}

	if v := os.Getenv("PINECONE_INDEX"); v != "" {
		cfg.PineconeIndex = v
	}
	if v := os.Getenv("FEEDS_CONFIG_PATH"); v != "" {
		cfg.FeedsConfigPath = v
	}
	if v := os.Getenv("COMMIT_MODE"); v != "" {
		cfg.CommitMode = v
	}
	cfg.ScrapeContent = os.Getenv("SCRAPE_CONTENT") == "true"

	cfg.MaxAttempts = getEnvInt("LLM_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.MaxLLMRequests = getEnvInt("MAX_LLM_REQUESTS", cfg.MaxLLMRequests)
	cfg.CutoffHours = getEnvInt("CUTOFF_HOURS", cfg.CutoffHours)
	cfg.UpsertBatchSize = getEnvInt("VECTOR_UPSERT_BATCH", cfg.UpsertBatchSize)
	cfg.SearchTopK = getEnvInt("VECTOR_SEARCH_TOP_K", cfg.SearchTopK)
	cfg.RetryAttempts = getEnvInt("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryDelay = getEnvDuration("RETRY_DELAY", cfg.RetryDelay)
	cfg.CatalogCacheTTL = getEnvDuration("CATALOG_CACHE_TTL", cfg.CatalogCacheTTL)
	cfg.LLMMinInterval = getEnvDuration("LLM_MIN_INTERVAL", cfg.LLMMinInterval)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("model pool is empty")
	}
	if c.CommitMode != "per_article" && c.CommitMode != "batch" {
		return fmt.Errorf("invalid COMMIT_MODE %q", c.CommitMode)
	}
	if c.CutoffHours <= 0 {
		return fmt.Errorf("CUTOFF_HOURS must be positive")
	}
	if c.UpsertBatchSize <= 0 {
		return fmt.Errorf("VECTOR_UPSERT_BATCH must be positive")
	}
	return nil
}

// Feeds is the per-source RSS URL configuration loaded from YAML.
// Google has no static list: its URLs are derived from the subcategory
// ids of the current taxonomy using the base query template.
type Feeds struct {
	Anthropic     []string `yaml:"anthropic"`
	OpenAI        []string `yaml:"openai"`
	Hackernoon    []string `yaml:"hackernoon"`
	GoogleBaseURL string   `yaml:"google_base_url"`
}

// LoadFeeds reads the RSS feeds configuration from a YAML file.
func LoadFeeds(path string) (*Feeds, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var feeds Feeds
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&feeds); err != nil {
		return nil, err
	}

	if len(feeds.Anthropic) == 0 || len(feeds.OpenAI) == 0 || len(feeds.Hackernoon) == 0 {
		return nil, fmt.Errorf("feeds config %s: every static source needs at least one URL", path)
	}
	if feeds.GoogleBaseURL == "" {
		feeds.GoogleBaseURL = "https://news.google.com/rss/search?q=%s"
	}
	if !strings.Contains(feeds.GoogleBaseURL, "%s") {
		return nil, fmt.Errorf("feeds config %s: google_base_url needs a %%s query placeholder", path)
	}
	return &feeds, nil
}

// GoogleFeedURLs renders one Google News search feed per subcategory id.
func (f *Feeds) GoogleFeedURLs(subcategoryIDs []string) []string {
	urls := make([]string, 0, len(subcategoryIDs))
	for _, id := range subcategoryIDs {
		urls = append(urls, fmt.Sprintf(f.GoogleBaseURL, id))
	}
	return urls
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
