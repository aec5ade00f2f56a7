package recognize

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/store"
)

// Backend keys.
const (
	KeyLLM          = "llm"
	KeyGoogleVision = "google-vision"
	KeyNone         = "none"
)

// Builder constructs a backend on first use.
type Builder func(ctx context.Context) (Recognizer, error)

// Registry builds recognizers by key and caches them, so each backend is
// constructed at most once.
type Registry struct {
	mu       sync.Mutex
	builders map[string]Builder
	cache    map[string]Recognizer
}

// NewRegistry returns a registry with only the "none" backend.
func NewRegistry() *Registry {
	r := &Registry{
		builders: make(map[string]Builder),
		cache:    make(map[string]Recognizer),
	}
	r.Register(KeyNone, func(context.Context) (Recognizer, error) { return None{}, nil })
	return r
}

// Register adds or replaces the builder for key and drops any cached
// instance.
func (r *Registry) Register(key string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[key] = b
	delete(r.cache, key)
}

// Keys returns the registered backend keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.builders))
}

// Get returns the cached backend for key, building it if needed. Build
// failures are not cached.
func (r *Registry) Get(ctx context.Context, key string) (Recognizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.cache[key]; ok {
		return rec, nil
	}
	b, ok := r.builders[key]
	if !ok {
		return nil, fmt.Errorf("unknown recognizer backend %q (have %v)", key, slices.Sorted(maps.Keys(r.builders)))
	}
	rec, err := b(ctx)
	if err != nil {
		return nil, fmt.Errorf("build recognizer %s: %w", key, err)
	}
	r.cache[key] = rec
	return rec, nil
}

// Settings configures the default backends.
type Settings struct {
	LLM             llm.Config
	EventRepo       store.EventRepo // nil disables LLM request logging
	GoogleVisionKey string
	VisionEndpoint  string
}

// NewDefaultRegistry registers the llm, google-vision and none backends.
func NewDefaultRegistry(s Settings) *Registry {
	r := NewRegistry()
	r.Register(KeyLLM, func(ctx context.Context) (Recognizer, error) {
		p, err := llm.NewProvider(ctx, s.LLM, s.EventRepo)
		if err != nil {
			return nil, err
		}
		return NewLLM(p, s.LLM.Provider, s.LLM.Timeout), nil
	})
	r.Register(KeyGoogleVision, func(context.Context) (Recognizer, error) {
		var opts []VisionOption
		if s.VisionEndpoint != "" {
			opts = append(opts, WithVisionEndpoint(s.VisionEndpoint))
		}
		return NewGoogleVision(s.GoogleVisionKey, opts...), nil
	})
	return r
}
