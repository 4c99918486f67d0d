package llm

import "testing"

func TestNewPoolRejectsEmpty(t *testing.T) {
	if _, err := NewPool(nil); err == nil {
		t.Fatal("expected error for empty pool")
	}
}

func TestPoolAdvanceIsSticky(t *testing.T) {
	pool, err := NewPool([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	if got := pool.Current(); got != "a" {
		t.Fatalf("expected initial model a, got %s", got)
	}
	if got := pool.Advance("a"); got != "b" {
		t.Fatalf("expected advance to b, got %s", got)
	}
	// The pointer stays where the advance left it for subsequent calls.
	if got := pool.Current(); got != "b" {
		t.Fatalf("expected current b after advance, got %s", got)
	}
}

func TestPoolAdvanceIgnoresStaleReports(t *testing.T) {
	pool, _ := NewPool([]string{"a", "b", "c"})

	pool.Advance("a")
	// A concurrent caller still holding "a" must not move the pointer
	// again; it adopts the pool's current choice instead.
	if got := pool.Advance("a"); got != "b" {
		t.Fatalf("stale advance moved pointer to %s", got)
	}
}

func TestPoolAdvanceWrapsAround(t *testing.T) {
	pool, _ := NewPool([]string{"a", "b"})

	pool.Advance("a")
	if got := pool.Advance("b"); got != "a" {
		t.Fatalf("expected wrap to a, got %s", got)
	}
}
