// Package backend defines the contract for external analysis backends and
// the admission queues that bound concurrent access to them.
package backend

import (
	"context"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// AnalysisParams is the normalized input handed to a backend. The prompt
// and context have already been validated upstream.
type AnalysisParams struct {
	Prompt  string
	Context review.RequestContext
	Options review.RequestOptions
}

// Backend is one external analysis provider. Analyze returns the parsed
// result or an error; an error is a recoverable per-backend failure, never
// fatal to the request as a whole.
type Backend interface {
	ID() string
	Analyze(ctx context.Context, params AnalysisParams) (*review.AnalysisResult, error)
}

// Registry holds the configured backends in registration order. Order
// matters: sequential execution walks backends in this order, and the
// default backend set is all of them.
type Registry struct {
	order    []string
	backends map[string]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend. Registering the same ID twice is an error.
func (r *Registry) Register(b Backend) error {
	id := b.ID()
	if id == "" {
		return review.NewValidationError("backend id must not be empty")
	}
	if _, exists := r.backends[id]; exists {
		return review.NewValidationError("backend %q already registered", id)
	}
	r.backends[id] = b
	r.order = append(r.order, id)
	return nil
}

// Get returns the backend with the given ID.
func (r *Registry) Get(id string) (Backend, bool) {
	b, ok := r.backends[id]
	return b, ok
}

// IDs returns all registered backend IDs in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve maps requested backend IDs to backends, preserving registration
// order. An empty request selects every registered backend. Unknown IDs
// are a validation error.
func (r *Registry) Resolve(ids []string) ([]Backend, error) {
	if len(r.order) == 0 {
		return nil, review.NewValidationError("no backends configured")
	}

	if len(ids) == 0 {
		out := make([]Backend, 0, len(r.order))
		for _, id := range r.order {
			out = append(out, r.backends[id])
		}
		return out, nil
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.backends[id]; !ok {
			return nil, review.NewValidationError("unknown backend %q", id)
		}
		requested[id] = true
	}

	out := make([]Backend, 0, len(requested))
	for _, id := range r.order {
		if requested[id] {
			out = append(out, r.backends[id])
		}
	}
	return out, nil
}
