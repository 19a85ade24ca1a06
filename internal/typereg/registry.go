// Package typereg tracks the type tables a program has emitted and checks
// their structural invariants. The runtime core trusts tables blindly on
// its hot paths; this package is where tooling and tests make that trust
// earned.
package typereg

import (
	"fmt"
	"sort"
	"sync"

	"ferrite/internal/rt"
)

// Registry is a process-wide index of emitted type tables. Registration
// happens during startup table emission; lookups are concurrent.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*rt.DerivedType
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*rt.DerivedType, 32)}
}

// Register adds a table entry under its emitted name.
func (r *Registry) Register(dt *rt.DerivedType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[dt.Name()]; dup {
		return fmt.Errorf("type %q registered twice", dt.Name())
	}
	r.types[dt.Name()] = dt
	return nil
}

// Lookup resolves a registered entry by name.
func (r *Registry) Lookup(name string) (*rt.DerivedType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dt, ok := r.types[name]
	return dt, ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
