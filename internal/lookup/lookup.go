package lookup

import (
	"context"
	"fmt"
	"sort"

	"RecordSync/internal/domain"
)

// Request carries everything a searcher needs to query a directory for one input row.
type Request struct {
	Query   string
	Input   domain.InputRecord
	Options map[string]string
}

// Searcher captures a single directory implementation (WAM NET, a saved fixture, etc.).
type Searcher interface {
	Name() string
	Search(ctx context.Context, req Request) ([]domain.CandidateRecord, error)
}

// Registry keeps a mapping from searcher names to their implementations.
type Registry struct {
	searchers map[string]Searcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{searchers: map[string]Searcher{}}
}

// Register adds or replaces a searcher implementation.
func (r *Registry) Register(searcher Searcher) {
	if r.searchers == nil {
		r.searchers = map[string]Searcher{}
	}
	r.searchers[searcher.Name()] = searcher
}

// Resolve returns a searcher by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Searcher, error) {
	if searcher, ok := r.searchers[name]; ok {
		return searcher, nil
	}
	return nil, fmt.Errorf("searcher %s is not registered (known: %v)", name, r.Names())
}

// Names lists the registered searchers in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.searchers))
	for name := range r.searchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
