// Package resolver implements the Resolver Registry (spec.md §4.5,
// component C5): a priority-ordered list of pluggable strategies for
// module references, grounded directly on the teacher's
// core/decorator/registry.go "database/sql driver" registration
// pattern (a path string looked up against registered implementations).
package resolver

import (
	"fmt"
	"sync"
)

// Context distinguishes why a reference is being resolved (spec §4.5).
type Context string

const (
	ContextImport   Context = "import"
	ContextPath     Context = "path"
	ContextVariable Context = "variable"
)

// ResolveContext is passed to every Strategy.Resolve call.
type ResolveContext struct {
	Kind             Context
	RequestedImports []string // names requested by `importSelected`, if any
}

// ContentType tags what a Resolution's Content represents (spec §4.5).
type ContentType string

const (
	ContentModule ContentType = "module"
	ContentData   ContentType = "data"
	ContentText   ContentType = "text"
)

// Resolution is what a Strategy produces.
type Resolution struct {
	Content     []byte
	ContentType ContentType
	Metadata    map[string]any
	// DataValue carries a pre-built value for ContentData resolutions
	// (e.g. @now, @input) so the caller doesn't need to parse Content.
	DataValue any
}

// Strategy is the pluggable-resolver contract (spec §4.5): a small
// trait-like interface, not an open-ended class hierarchy (spec §9).
type Strategy interface {
	Name() string
	Matches(ref string) bool
	Resolve(ref string, rc ResolveContext) (Resolution, error)
}

// Registry holds strategies in priority order; the first match wins
// (spec §4.5 "Ambiguity resolution").
type Registry struct {
	mu         sync.RWMutex
	strategies []Strategy
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a strategy at the end of the priority list. Callers
// register built-ins first, in the order spec §4.5 lists them
// (project-path, registry, local, GitHub/HTTP, builtins), then any
// user-configured resolvers.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = append(r.strategies, s)
}

// Resolve finds the first matching strategy and delegates to it.
func (r *Registry) Resolve(ref string, rc ResolveContext) (Resolution, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.strategies {
		if s.Matches(ref) {
			res, err := s.Resolve(ref, rc)
			return res, s.Name(), err
		}
	}
	return Resolution{}, "", fmt.Errorf("no resolver strategy matches %q", ref)
}

// Names returns every registered strategy's Name, in priority order,
// for diagnostics/tooling; reserving prefix segments is left to the
// caller (environment.ReservedNames).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		out[i] = s.Name()
	}
	return out
}
