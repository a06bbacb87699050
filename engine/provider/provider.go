// Package provider holds the embedding model backends. Each backend
// implements Embedder; callers pick one through a Registry keyed by Model.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Model names a supported embedding backend.
type Model string

const (
	ModelGemini Model = "gemini"
	ModelOpenAI Model = "openai"
	ModelLocal  Model = "local"
)

// Spec describes the fixed characteristics of a model.
type Spec struct {
	Dimensions    int
	MaxInputChars int
}

// specs maps each model to its output dimensionality and input limit.
var specs = map[Model]Spec{
	ModelGemini: {Dimensions: 1536, MaxInputChars: 8000},
	ModelOpenAI: {Dimensions: 3072, MaxInputChars: 8000},
	ModelLocal:  {Dimensions: 768, MaxInputChars: 8000},
}

var (
	ErrUnknownModel   = errors.New("unknown embedding model")
	ErrNotConfigured  = errors.New("model not configured")
	ErrEmptyEmbedding = errors.New("backend returned empty embedding")
)

// SpecFor returns the spec for a model.
func SpecFor(m Model) (Spec, error) {
	s, ok := specs[m]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownModel, m)
	}
	return s, nil
}

// Embedder is a single embedding backend.
type Embedder interface {
	Model() Model
	Dimensions() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Registry holds the configured backends.
type Registry struct {
	backends map[Model]Embedder
}

// NewRegistry builds a registry from the given backends. Nil entries are
// skipped so callers can pass conditionally-constructed providers.
func NewRegistry(backends ...Embedder) *Registry {
	r := &Registry{backends: make(map[Model]Embedder)}
	for _, b := range backends {
		if b != nil {
			r.backends[b.Model()] = b
		}
	}
	return r
}

// Get returns the backend for m.
func (r *Registry) Get(m Model) (Embedder, error) {
	if _, err := SpecFor(m); err != nil {
		return nil, err
	}
	b, ok := r.backends[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, m)
	}
	return b, nil
}

// Available lists the configured models.
func (r *Registry) Available() []Model {
	out := make([]Model, 0, len(r.backends))
	for m := range r.backends {
		out = append(out, m)
	}
	return out
}
