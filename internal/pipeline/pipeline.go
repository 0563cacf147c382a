// Package pipeline chains per-article processing steps between the
// assembler and the store.
package pipeline

import (
	"log/slog"
	"sync"

	"github.com/sesgocero/crawler/internal/textutil"
	"github.com/sesgocero/crawler/internal/types"
)

// Middleware processes an article and returns the (possibly modified)
// article. Return nil to drop it from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(a *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order. A nil
// return with nil error means the article was dropped.
func (p *Pipeline) Process(a *types.Article) (*types.Article, error) {
	current := a
	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, err
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", a.URL)
			return nil, nil
		}
		current = result
	}
	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// NormalizeMiddleware re-normalizes every text field. Safe to run
// after the assembler because normalization is idempotent.
type NormalizeMiddleware struct{}

func (m *NormalizeMiddleware) Name() string { return "normalize" }

func (m *NormalizeMiddleware) Process(a *types.Article) (*types.Article, error) {
	a.Title = textutil.Normalize(a.Title)
	a.Subtitle = textutil.Normalize(a.Subtitle)
	a.Content = textutil.Normalize(a.Content)
	a.Source = textutil.Normalize(a.Source)
	return a, nil
}

// DefaultsMiddleware fills fields the downstream stages expect.
type DefaultsMiddleware struct{}

func (m *DefaultsMiddleware) Name() string { return "defaults" }

func (m *DefaultsMiddleware) Process(a *types.Article) (*types.Article, error) {
	if a.PoliticalOrientation == "" {
		a.PoliticalOrientation = "unknown"
	}
	return a, nil
}

// DedupMiddleware drops articles whose URL was already emitted in
// this run. Purely an in-process shortcut: the store's unique index
// is the real dedup gate.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupMiddleware creates a DedupMiddleware.
func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: make(map[string]struct{})}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(a *types.Article) (*types.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[a.URL]; ok {
		return nil, nil
	}
	m.seen[a.URL] = struct{}{}
	return a, nil
}
