package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ainews/internal/llm"
	"ainews/internal/ratelimit"
	"ainews/internal/taxonomy"
)

func testTaxonomy() taxonomy.Taxonomy {
	return taxonomy.Taxonomy{
		Categories: []taxonomy.Category{
			{ID: "core", Title: "Core AI News"},
			{ID: "sectors", Title: "Sector-Specific"},
		},
		Subcategories: map[string][]taxonomy.Subcategory{
			"core":    {{ID: "ai-research", Title: "Research", CategoryID: "core"}},
			"sectors": {{ID: "ai-healthcare", Title: "Healthcare", CategoryID: "sectors"}},
		},
	}
}

const goodResponse = `{
	"category": {"category_id": "sectors", "title": "Sector-Specific"},
	"subcategory": {"subcategory_id": "ai-healthcare", "title": "Healthcare"},
	"category_confidence": 0.98,
	"subcategory_confidence": 0.88
}`

// scriptedCompleter replays canned completions and records which model
// each attempt used.
type scriptedCompleter struct {
	script []func() (string, error)
	calls  []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	s.calls = append(s.calls, model)
	if len(s.script) == 0 {
		return "", fmt.Errorf("unexpected extra call for model %s", model)
	}
	fn := s.script[0]
	s.script = s.script[1:]
	return fn()
}

func respond(raw string) func() (string, error) {
	return func() (string, error) { return raw, nil }
}

func rateLimited(model string) func() (string, error) {
	return func() (string, error) { return "", &llm.RateLimitError{Model: model, Status: "429"} }
}

func mustPool(t *testing.T, models ...string) *llm.Pool {
	t.Helper()
	pool, err := llm.NewPool(models)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return pool
}

func TestClassifySuccess(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){respond(goodResponse)}}
	c := New(completer, mustPool(t, "a"), nil, 0)

	result, err := c.Classify(context.Background(), "AI helps doctors", testTaxonomy())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category.ID != "sectors" {
		t.Errorf("expected category sectors, got %s", result.Category.ID)
	}
	if result.Subcategory == nil || result.Subcategory.ID != "ai-healthcare" {
		t.Errorf("expected subcategory ai-healthcare, got %+v", result.Subcategory)
	}
	if result.CategoryConfidence != 0.98 || result.SubcategoryConfidence != 0.88 {
		t.Errorf("unexpected confidences: %+v", result)
	}
}

func TestClassifyFallsBackOnRateLimit(t *testing.T) {
	pool := mustPool(t, "a", "b")
	completer := &scriptedCompleter{script: []func() (string, error){
		rateLimited("a"),
		respond(goodResponse),
	}}
	c := New(completer, pool, nil, 0)

	result, err := c.Classify(context.Background(), "title", testTaxonomy())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category.ID != "sectors" {
		t.Errorf("fallback result lost: %+v", result)
	}
	if len(completer.calls) != 2 || completer.calls[0] != "a" || completer.calls[1] != "b" {
		t.Errorf("expected calls [a b], got %v", completer.calls)
	}
	// The pool pointer sticks on the fallback model for later calls.
	if pool.Current() != "b" {
		t.Errorf("expected pool current b, got %s", pool.Current())
	}
}

func TestClassifyExhaustsPool(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		rateLimited("a"), rateLimited("b"), rateLimited("c"),
	}}
	c := New(completer, mustPool(t, "a", "b", "c"), nil, 0)

	_, err := c.Classify(context.Background(), "title", testTaxonomy())

	var cerr *ClassificationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
	if cerr.Attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", cerr.Attempts)
	}
	var rle *llm.RateLimitError
	if !errors.As(cerr.Err, &rle) {
		t.Errorf("expected last provider error preserved, got %v", cerr.Err)
	}
	if len(completer.calls) != 3 {
		t.Errorf("expected 3 completions, got %v", completer.calls)
	}
}

func TestClassifyHonorsAttemptCap(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		rateLimited("a"), rateLimited("b"),
	}}
	c := New(completer, mustPool(t, "a", "b", "c", "d"), nil, 2)

	_, err := c.Classify(context.Background(), "title", testTaxonomy())

	var cerr *ClassificationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
	if cerr.Attempts != 2 {
		t.Errorf("expected cap of 2 attempts, got %d", cerr.Attempts)
	}
}

func TestClassifyMalformedResponseIsNotRetried(t *testing.T) {
	pool := mustPool(t, "a", "b")
	completer := &scriptedCompleter{script: []func() (string, error){
		respond("the category is probably healthcare"),
	}}
	c := New(completer, pool, nil, 0)

	_, err := c.Classify(context.Background(), "title", testTaxonomy())

	var merr *MalformedResponseError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if len(completer.calls) != 1 {
		t.Errorf("malformed response consumed a fallback attempt: %v", completer.calls)
	}
	if pool.Current() != "a" {
		t.Errorf("malformed response moved the pool pointer to %s", pool.Current())
	}
}

func TestClassifyRejectsUnknownCategory(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		respond(`{"category":{"category_id":"made-up","title":"?"},"category_confidence":0.9,"subcategory_confidence":0.9}`),
	}}
	c := New(completer, mustPool(t, "a"), nil, 0)

	_, err := c.Classify(context.Background(), "title", testTaxonomy())

	var merr *MalformedResponseError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedResponseError for hallucinated category, got %v", err)
	}
}

func TestClassifyDropsHallucinatedSubcategory(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		respond(`{
			"category": {"category_id": "core", "title": "Core AI News"},
			"subcategory": {"subcategory_id": "ai-healthcare", "title": "Healthcare"},
			"category_confidence": 0.9,
			"subcategory_confidence": 0.9
		}`),
	}}
	c := New(completer, mustPool(t, "a"), nil, 0)

	result, err := c.Classify(context.Background(), "title", testTaxonomy())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	// ai-healthcare is real but belongs to sectors, not core.
	if result.Subcategory != nil {
		t.Errorf("cross-category subcategory kept: %+v", result.Subcategory)
	}
	if result.Category.ID != "core" {
		t.Errorf("category lost: %+v", result.Category)
	}
}

func TestClassifyNullsLowConfidenceSubcategory(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		respond(`{
			"category": {"category_id": "sectors", "title": "Sector-Specific"},
			"subcategory": {"subcategory_id": "ai-healthcare", "title": "Healthcare"},
			"category_confidence": 0.9,
			"subcategory_confidence": 0.1
		}`),
	}}
	c := New(completer, mustPool(t, "a"), nil, 0)

	result, err := c.Classify(context.Background(), "title", testTaxonomy())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Subcategory != nil {
		t.Errorf("subcategory under confidence floor kept: %+v", result.Subcategory)
	}
}

func TestClassifyClampsConfidences(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		respond(`{
			"category": {"category_id": "sectors", "title": "Sector-Specific"},
			"subcategory": {"subcategory_id": "ai-healthcare", "title": "Healthcare"},
			"category_confidence": 1.7,
			"subcategory_confidence": -0.3
		}`),
	}}
	c := New(completer, mustPool(t, "a"), nil, 0)

	result, err := c.Classify(context.Background(), "title", testTaxonomy())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.CategoryConfidence != 1 {
		t.Errorf("expected category confidence clamped to 1, got %v", result.CategoryConfidence)
	}
	if result.SubcategoryConfidence != 0 {
		t.Errorf("expected subcategory confidence clamped to 0, got %v", result.SubcategoryConfidence)
	}
}

func TestClassifyTreatsTimeoutAsCapacityError(t *testing.T) {
	pool := mustPool(t, "a", "b")
	completer := &scriptedCompleter{script: []func() (string, error){
		func() (string, error) { return "", fmt.Errorf("chat completion: %w", context.DeadlineExceeded) },
		respond(goodResponse),
	}}
	c := New(completer, pool, nil, 0)

	if _, err := c.Classify(context.Background(), "title", testTaxonomy()); err != nil {
		t.Fatalf("timeout should fall back like a rate limit, got %v", err)
	}
	if pool.Current() != "b" {
		t.Errorf("timeout did not advance the pool, current %s", pool.Current())
	}
}

func TestClassifyStopsOnNonCapacityProviderError(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		func() (string, error) { return "", errors.New("provider error 500") },
	}}
	c := New(completer, mustPool(t, "a", "b"), nil, 0)

	_, err := c.Classify(context.Background(), "title", testTaxonomy())

	var cerr *ClassificationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
	if len(completer.calls) != 1 {
		t.Errorf("non-capacity error consumed fallback attempts: %v", completer.calls)
	}
}

func TestClassifyRespectsRequestBudget(t *testing.T) {
	completer := &scriptedCompleter{script: []func() (string, error){
		respond(goodResponse),
	}}
	limiter := ratelimit.New(1, time.Millisecond)
	c := New(completer, mustPool(t, "a"), limiter, 0)

	if _, err := c.Classify(context.Background(), "first", testTaxonomy()); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	_, err := c.Classify(context.Background(), "second", testTaxonomy())
	if !errors.Is(err, ratelimit.ErrBudgetExhausted) {
		t.Fatalf("expected budget exhaustion, got %v", err)
	}
	if len(completer.calls) != 1 {
		t.Errorf("budget-blocked call still reached the provider: %v", completer.calls)
	}
}
