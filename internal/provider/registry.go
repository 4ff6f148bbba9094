package provider

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/alinski29/stonks/internal/fetch"
	"github.com/alinski29/stonks/internal/model"
)

// ResourceSelectionError reports that no registered resource serves a
// requested record type. It is never retried.
type ResourceSelectionError struct {
	RecordType string
}

func (e *ResourceSelectionError) Error() string {
	return fmt.Sprintf("no resource registered for record type %q", e.RecordType)
}

// Registry holds provider resources keyed by the record type they serve.
type Registry struct {
	mu    sync.RWMutex
	specs map[string][]fetch.ResourceSpec
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string][]fetch.ResourceSpec)}
}

// Register adds resources. Resources registered for the same record type
// compete at selection time through their Priority.
func (r *Registry) Register(specs ...fetch.ResourceSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range specs {
		key := s.RecordType.Name
		r.specs[key] = append(r.specs[key], s)
	}
}

// Types returns the record type names with at least one registered resource.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	return out
}

// Select picks the resource serving a record type. The lowest Priority
// value wins; ties are broken by uniform random choice among the tied
// resources.
func (r *Registry) Select(rt *model.RecordType) (fetch.ResourceSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.specs[rt.Name]
	if len(candidates) == 0 {
		return fetch.ResourceSpec{}, &ResourceSelectionError{RecordType: rt.Name}
	}
	best := candidates[0].Priority
	for _, c := range candidates[1:] {
		if c.Priority < best {
			best = c.Priority
		}
	}
	tied := candidates[:0:0]
	for _, c := range candidates {
		if c.Priority == best {
			tied = append(tied, c)
		}
	}
	return tied[rand.Intn(len(tied))], nil
}
