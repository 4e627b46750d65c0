package extract

import (
	"context"
	"fmt"
	"sync"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// Note marks a logical boundary in extracted text: a page break, a
// slide, a sheet name, an archive entry. Notes keep the canonical text
// interpretable by the summarizer.
type Note struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Result holds the canonical UTF-8 text extracted from one file.
type Result struct {
	Text  string `json:"text"`
	Notes []Note `json:"notes,omitempty"`
}

// Extractor is one extraction strategy. Implementations report corrupt
// or unreadable input through the error return; they never panic past
// the registry boundary.
type Extractor interface {
	Extract(ctx context.Context, f files.SourceFile) (Result, error)
}

// Registry is the pure mapping from FormatKind to extraction strategy.
// Adding a format touches exactly one registration point; the pipeline
// stays format-agnostic.
type Registry struct {
	mu         sync.RWMutex
	strategies map[files.FormatKind]Extractor
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[files.FormatKind]Extractor)}
}

// Register binds a strategy to a format family. Later registrations
// replace earlier ones.
func (r *Registry) Register(kind files.FormatKind, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[kind] = e
}

// Lookup returns the strategy for a format family.
func (r *Registry) Lookup(kind files.FormatKind) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.strategies[kind]
	return e, ok
}

// Extract dispatches to the registered strategy. A missing strategy or
// a panicking parser surfaces as an ordinary error so one malformed
// file cannot abort batch processing.
func (r *Registry) Extract(ctx context.Context, kind files.FormatKind, f files.SourceFile) (res Result, err error) {
	e, ok := r.Lookup(kind)
	if !ok {
		return Result{}, fmt.Errorf("extraction for format %q is not yet supported", kind)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extractor panic for format %q: %v", kind, rec)
		}
	}()
	return e.Extract(ctx, f)
}
