package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	EntriesSeen            int64
	ArticlesPersisted      int64
	DuplicatesFiltered     int64
	ClassificationFailures int64
	ModelFallbacks         int64
	ScrapeFailures         int64

	// Timings
	LastRunDuration  time.Duration
	TotalRunDuration time.Duration
	RunCount         int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddEntriesSeen(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesSeen += int64(n)
}

func (m *Metrics) IncrementPersisted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesPersisted++
}

func (m *Metrics) IncrementDuplicates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementClassificationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClassificationFailures++
}

func (m *Metrics) IncrementModelFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModelFallbacks++
}

func (m *Metrics) IncrementScrapeFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScrapeFailures++
}

func (m *Metrics) RecordRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avg := time.Duration(0)
	if m.RunCount > 0 {
		avg = m.TotalRunDuration / time.Duration(m.RunCount)
	}

	return map[string]interface{}{
		"entries_seen":            m.EntriesSeen,
		"articles_persisted":      m.ArticlesPersisted,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"classification_failures": m.ClassificationFailures,
		"model_fallbacks":         m.ModelFallbacks,
		"scrape_failures":         m.ScrapeFailures,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": avg.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
