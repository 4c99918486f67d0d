package llm

import (
	"fmt"
	"sync"
)

// Pool is the ordered model fallback list with a sticky "current" pointer.
// The pointer only moves forward (modulo pool size) when a caller reports
// a capacity failure, so a discovered rate limit is amortized across later
// classification calls instead of every call re-probing the first model.
type Pool struct {
	mu      sync.Mutex
	models  []string
	current int
}

func NewPool(models []string) (*Pool, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model pool is empty")
	}
	out := make([]string, len(models))
	copy(out, models)
	return &Pool{models: out}, nil
}

// Current returns the model new attempts should start with.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.models[p.current]
}

// Size returns the number of models in the pool.
func (p *Pool) Size() int {
	return len(p.models)
}

// Advance moves the pointer past the model that just hit a rate limit and
// returns the new current model. When a concurrent run already moved the
// pointer off `from`, the pointer stays put and the other run's choice is
// reused; the worst case of this race is a model skipped early, never a
// wrong result.
func (p *Pool) Advance(from string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.models[p.current] == from {
		p.current = (p.current + 1) % len(p.models)
	}
	return p.models[p.current]
}
