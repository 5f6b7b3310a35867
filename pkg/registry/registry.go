// Package registry is the catalog of node types known to a process.
//
// A [Registry] is an explicit value built at startup and injected wherever
// definitions are needed. It is populated once, then frozen:
//
//	reg := registry.New(registry.WithEnv(env))
//	reg.MustRegister(myDef)
//	reg.Freeze()
//
// [Builtin] returns a frozen registry holding the standard catalog.
package registry

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

var (
	// ErrFrozen is returned by [Registry.Register] after [Registry.Freeze].
	ErrFrozen = errors.New("registry is frozen")

	// ErrUnknownType is returned when a type id has no registered definition.
	ErrUnknownType = errors.New("unknown node type")
)

// Registry maps type ids to node definitions. Reads are safe for concurrent
// use. Writes are meant for startup only.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*nodedef.Definition
	frozen bool
	env    *nodedef.Env
	logger *log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithEnv sets the named rules and transforms definitions may reference.
// Registered definitions are checked against it.
func WithEnv(env *nodedef.Env) Option { return func(r *Registry) { r.env = env } }

// WithLogger sets the logger used for registration events.
func WithLogger(l *log.Logger) Option { return func(r *Registry) { r.logger = l } }

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{defs: make(map[string]*nodedef.Definition)}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Env returns the environment custom rules and transforms resolve against.
func (r *Registry) Env() *nodedef.Env { return r.env }

// Register adds def to the registry. A definition registered under an
// existing type id replaces the previous one.
//
// Register fails if def is nil, is structurally invalid, references rules
// or transforms missing from the registry's environment, or if the registry
// is frozen. Any such failure is a programming error.
func (r *Registry) Register(def *nodedef.Definition) error {
	if def == nil {
		return fmt.Errorf("%w: nil definition", nodedef.ErrInvalidDefinition)
	}
	if err := def.Check(); err != nil {
		return err
	}
	if r.env != nil {
		if err := def.CheckEnv(r.env); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %s: %w", def.TypeID, ErrFrozen)
	}
	if prev, ok := r.defs[def.TypeID]; ok {
		r.logger.Debug("replacing node definition", "type", def.TypeID, "old", prev.Version, "new", def.Version)
	}
	r.defs[def.TypeID] = def
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(defs ...*nodedef.Definition) {
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Get returns the definition registered under typeID.
func (r *Registry) Get(typeID string) (*nodedef.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[typeID]
	return d, ok
}

// Lookup is like Get but returns an error wrapping [ErrUnknownType].
func (r *Registry) Lookup(typeID string) (*nodedef.Definition, error) {
	d, ok := r.Get(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeID)
	}
	return d, nil
}

// All returns every definition sorted by type id.
func (r *Registry) All() []*nodedef.Definition {
	return r.filter(func(*nodedef.Definition) bool { return true })
}

// ByCategory returns the definitions in category, sorted by type id.
func (r *Registry) ByCategory(category nodedef.Category) []*nodedef.Definition {
	return r.filter(func(d *nodedef.Definition) bool { return d.Category == category })
}

// SearchByTags returns definitions carrying any of tags. Matching ignores case.
func (r *Registry) SearchByTags(tags ...string) []*nodedef.Definition {
	if len(tags) == 0 {
		return []*nodedef.Definition{}
	}
	return r.filter(func(d *nodedef.Definition) bool {
		for _, have := range d.Tags {
			for _, want := range tags {
				if strings.EqualFold(have, want) {
					return true
				}
			}
		}
		return false
	})
}

// Search returns definitions whose display name, description or any tag
// contains query, ignoring case. An empty query matches everything.
func (r *Registry) Search(query string) []*nodedef.Definition {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.filter(func(d *nodedef.Definition) bool {
		if strings.Contains(strings.ToLower(d.DisplayName), q) ||
			strings.Contains(strings.ToLower(d.Description), q) {
			return true
		}
		for _, t := range d.Tags {
			if strings.Contains(strings.ToLower(t), q) {
				return true
			}
		}
		return false
	})
}

// Query narrows a listing. Zero fields match everything; set fields must
// all match.
type Query struct {
	Category nodedef.Category
	Tags     []string
	Text     string
}

// Find returns the definitions matching q, sorted by type id.
func (r *Registry) Find(q Query) []*nodedef.Definition {
	defs := r.All()
	if q.Category != "" {
		defs = intersect(defs, r.ByCategory(q.Category))
	}
	if len(q.Tags) > 0 {
		defs = intersect(defs, r.SearchByTags(q.Tags...))
	}
	if strings.TrimSpace(q.Text) != "" {
		defs = intersect(defs, r.Search(q.Text))
	}
	return defs
}

func intersect(a, b []*nodedef.Definition) []*nodedef.Definition {
	keep := make(map[string]bool, len(b))
	for _, d := range b {
		keep[d.TypeID] = true
	}
	out := make([]*nodedef.Definition, 0, len(a))
	for _, d := range a {
		if keep[d.TypeID] {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the distinct categories in use, sorted.
func (r *Registry) Categories() []nodedef.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var cats []nodedef.Category
	for _, d := range r.defs {
		if !slices.Contains(cats, d.Category) {
			cats = append(cats, d.Category)
		}
	}
	slices.Sort(cats)
	return cats
}

func (r *Registry) filter(keep func(*nodedef.Definition) bool) []*nodedef.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*nodedef.Definition, 0, len(r.defs))
	for _, d := range r.defs {
		if keep(d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b *nodedef.Definition) int { return strings.Compare(a.TypeID, b.TypeID) })
	return out
}
