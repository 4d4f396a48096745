package mdsystem

import (
	"fmt"
	"slices"

	"github.com/rbdavid/exafold/openmm"
)

// RegisteredRestraint is a configured restraint force, with the information
// needed to add interactions to it.
type RegisteredRestraint struct {
	Force  openmm.Force
	Method string
	Arity  int
	Units  []float64
}

// Registry stores restraints by type. Entries are never removed.
type Registry struct {
	entries map[string]*RegisteredRestraint
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegisteredRestraint)}
}

// Insert adds r under key. It fails with ErrRestraintExists if key is already present.
func (R *Registry) Insert(key string, r *RegisteredRestraint) error {
	if _, ok := R.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrRestraintExists, key)
	}
	R.Replace(key, r)
	return nil
}

// Replace adds r under key, overwriting any previous entry.
func (R *Registry) Replace(key string, r *RegisteredRestraint) {
	if _, ok := R.entries[key]; !ok {
		R.order = append(R.order, key)
	}
	R.entries[key] = r
}

func (R *Registry) Get(key string) (*RegisteredRestraint, bool) {
	r, ok := R.entries[key]
	return r, ok
}

// Types returns the registered keys, in the order they were first registered.
func (R *Registry) Types() []string {
	return slices.Clone(R.order)
}

func (R *Registry) Len() int {
	return len(R.entries)
}
