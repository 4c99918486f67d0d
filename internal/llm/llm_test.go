package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, func()) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-key", 5*time.Second), srv.Close
}

func TestCompleteReturnsAssistantText(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`)
	})
	defer done()

	got, err := client.Complete(context.Background(), "model-a", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestCompleteMapsTooManyRequests(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer done()

	_, err := client.Complete(context.Background(), "model-a", "prompt")

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.Model != "model-a" {
		t.Errorf("expected model-a in error, got %s", rle.Model)
	}
}

func TestCompleteOtherHTTPErrorsAreNotRateLimits(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	defer done()

	_, err := client.Complete(context.Background(), "model-a", "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		t.Fatalf("500 must not map to RateLimitError: %v", err)
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	client, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	defer done()

	if _, err := client.Complete(context.Background(), "model-a", "prompt"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
