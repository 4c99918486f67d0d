// Package classify assigns a (category, subcategory) pair to a news
// title by prompting a chat model constrained to the current taxonomy.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"ainews/internal/llm"
	"ainews/internal/logger"
	"ainews/internal/ratelimit"
	"ainews/internal/taxonomy"
)

// MinSubcategoryConfidence is the floor below which a returned
// subcategory is discarded and the article keeps only its category.
const MinSubcategoryConfidence = 0.2

const classifyPrompt = `You are an AI assistant for classifying AI news.

Task:
Given a news **TITLE**, return the closest matching **category** and **subcategory** from **CATEGORY_DATA**.
Also you have to give score for your classification.

Rules:

1. Use only entries from **CATEGORY_DATA**.
2. Output **strict JSON only**, following the structure below. Do not even include the markdown json format. Give just json.
3. No explanations or extra text.
4. If multiple matches exist, choose the single closest match.

Input:
TITLE: ` + "`%s`" + `
CATEGORY_DATA: ` + "`%s`" + `

Output (exact structure):
{
"category": { "category_id": "sectors", "title": "Sector-Specific" },
"subcategory": { "subcategory_id": "ai-healthcare", "title": "Healthcare" },
"category_confidence": 0.98,
"subcategory_confidence": 0.88
}`

// Result is a validated classification. Subcategory is nil when the model
// skipped it, hallucinated it, or scored it under the confidence floor.
type Result struct {
	Category              taxonomy.Category
	Subcategory           *taxonomy.Subcategory
	CategoryConfidence    float64
	SubcategoryConfidence float64
}

// ClassificationError means every eligible model was tried and none
// produced a usable completion. It carries the last provider error.
type ClassificationError struct {
	Title    string
	Attempts int
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification of %q failed after %d attempt(s): %v", e.Title, e.Attempts, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// MalformedResponseError means the model answered but the answer is not
// usable: broken JSON, wrong shape, or a category outside the taxonomy.
// It is never retried, a content problem is not a capacity problem.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed classification response: %v (raw: %.200s)", e.Err, e.Raw)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Completer is the single chat operation the classifier needs.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Classifier drives the prompt/fallback state machine over a model pool.
type Classifier struct {
	completer   Completer
	pool        *llm.Pool
	limiter     *ratelimit.Limiter // nil disables pacing
	maxAttempts int                // 0 means the pool size
}

func New(completer Completer, pool *llm.Pool, limiter *ratelimit.Limiter, maxAttempts int) *Classifier {
	return &Classifier{
		completer:   completer,
		pool:        pool,
		limiter:     limiter,
		maxAttempts: maxAttempts,
	}
}

// Classify submits the title against the taxonomy snapshot. Rate limits
// and timeouts advance the shared model pointer and retry; any other
// failure surfaces immediately.
func (c *Classifier) Classify(ctx context.Context, title string, tax taxonomy.Taxonomy) (Result, error) {
	categoryData, err := tax.PromptJSON()
	if err != nil {
		return Result{}, err
	}
	prompt := fmt.Sprintf(classifyPrompt, title, categoryData)

	budget := c.pool.Size()
	if c.maxAttempts > 0 && c.maxAttempts < budget {
		budget = c.maxAttempts
	}

	var lastErr error
	model := c.pool.Current()
	for attempt := 1; attempt <= budget; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx); err != nil {
				return Result{}, &ClassificationError{Title: title, Attempts: attempt - 1, Err: err}
			}
		}

		raw, err := c.completer.Complete(ctx, model, prompt)
		if err != nil {
			if !isCapacityError(err) {
				return Result{}, &ClassificationError{Title: title, Attempts: attempt, Err: err}
			}
			lastErr = err
			next := c.pool.Advance(model)
			logger.Warn("model rate limited, falling back", "model", model, "next", next, "attempt", attempt)
			model = next
			continue
		}

		return c.parse(raw, tax)
	}

	logger.Error("model pool exhausted", "title", title, "attempts", budget)
	return Result{}, &ClassificationError{Title: title, Attempts: budget, Err: lastErr}
}

type wireResult struct {
	Category struct {
		CategoryID string `json:"category_id"`
		Title      string `json:"title"`
	} `json:"category"`
	Subcategory *struct {
		SubcategoryID string `json:"subcategory_id"`
		Title         string `json:"title"`
	} `json:"subcategory"`
	CategoryConfidence    float64 `json:"category_confidence"`
	SubcategoryConfidence float64 `json:"subcategory_confidence"`
}

// parse decodes the raw model output and pins it to the snapshot. The
// category must exist in the taxonomy; the subcategory degrades to nil
// instead of failing the whole entry.
func (c *Classifier) parse(raw string, tax taxonomy.Taxonomy) (Result, error) {
	var wire wireResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &wire); err != nil {
		return Result{}, &MalformedResponseError{Raw: raw, Err: err}
	}
	if wire.Category.CategoryID == "" {
		return Result{}, &MalformedResponseError{Raw: raw, Err: errors.New("missing category")}
	}

	category, ok := tax.CategoryByID(wire.Category.CategoryID)
	if !ok {
		return Result{}, &MalformedResponseError{
			Raw: raw,
			Err: fmt.Errorf("category %q not in taxonomy", wire.Category.CategoryID),
		}
	}

	result := Result{
		Category:              category,
		CategoryConfidence:    clamp01(wire.CategoryConfidence),
		SubcategoryConfidence: clamp01(wire.SubcategoryConfidence),
	}

	if wire.Subcategory == nil || result.SubcategoryConfidence < MinSubcategoryConfidence {
		return result, nil
	}
	sub, ok := tax.SubcategoryByID(category.ID, wire.Subcategory.SubcategoryID)
	if !ok {
		// Hallucinated or cross-category subcategory: keep the category.
		logger.Warn("subcategory not in taxonomy, dropping it",
			"category", category.ID, "subcategory", wire.Subcategory.SubcategoryID)
		return result, nil
	}
	result.Subcategory = &sub
	return result, nil
}

// isCapacityError reports whether the failure is about provider capacity
// (rate limit or timeout) rather than content, so switching models may
// help.
func isCapacityError(err error) bool {
	var rle *llm.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
