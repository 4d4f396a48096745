package mdsystem

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/rbdavid/exafold/openmm"
	"github.com/rbdavid/exafold/restraints"
)

// buildRestraint validates def, constructs its force and applies the setup calls.
// Every error here is a problem with the definition, so it wraps
// restraints.ErrMalformedDefinition.
func buildRestraint(def *restraints.Definition) (*RegisteredRestraint, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	f, err := openmm.NewForce(def.RestraintType, def.Formula...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", restraints.ErrMalformedDefinition, err)
	}
	in := def.Interaction
	if !f.Accepts(in.Method, in.Arity) {
		return nil, fmt.Errorf("%w: %s can't add terms of %d particles with %q", restraints.ErrMalformedDefinition, def.RestraintType, in.Arity, in.Method)
	}
	for _, c := range def.SetupCalls {
		if err := f.Call(c.Method, c.Args...); err != nil {
			return nil, fmt.Errorf("%w: setup: %w", restraints.ErrMalformedDefinition, err)
		}
	}
	return &RegisteredRestraint{
		Force:  f,
		Method: def.Interaction.Method,
		Arity:  def.Interaction.Arity,
		Units:  slices.Clone(def.Interaction.Units),
	}, nil
}

// InitializeRestraintForce builds the force described by def and registers it under
// def.RestraintType, replacing any restraint previously registered with that type.
// If interactions are given, they are added as with AddRestraintInteractions.
func (O *OmmSystem) InitializeRestraintForce(def *restraints.Definition, interactions ...restraints.Interaction) error {
	r, err := buildRestraint(def)
	if err != nil {
		return err
	}
	O.registry.Replace(def.RestraintType, r)
	if len(interactions) > 0 {
		return O.AddRestraintInteractions(def.RestraintType, interactions)
	}
	return nil
}

// InsertRestraintForce is like InitializeRestraintForce, but fails with ErrRestraintExists
// if the restraint type is already registered.
func (O *OmmSystem) InsertRestraintForce(def *restraints.Definition, interactions ...restraints.Interaction) error {
	r, err := buildRestraint(def)
	if err != nil {
		return err
	}
	if err := O.registry.Insert(def.RestraintType, r); err != nil {
		return err
	}
	if len(interactions) > 0 {
		return O.AddRestraintInteractions(def.RestraintType, interactions)
	}
	return nil
}

// ResolvedInteraction is an interaction with atom indexes instead of residue/name pairs,
// and parameters in engine units.
type ResolvedInteraction struct {
	Atoms  []int
	Params []float64
}

// AddRestraintInteractions adds one term per interaction to the force of the given
// restraint type, in order. The whole list is checked before the force is touched.
// Interactions with atoms not found in the topology are skipped.
func (O *OmmSystem) AddRestraintInteractions(restraintType string, interactions []restraints.Interaction) error {
	r, ok := O.registry.Get(restraintType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRestraintType, restraintType)
	}
	if interactions == nil {
		return fmt.Errorf("%w: nil list", ErrInvalidInteractionList)
	}
	for i, in := range interactions {
		if len(in.Atoms) != r.Arity {
			return fmt.Errorf("%w: interaction %d has %d atoms, %s needs %d", ErrInvalidInteractionList, i, len(in.Atoms), restraintType, r.Arity)
		}
		if len(in.Params) != len(r.Units) {
			return fmt.Errorf("%w: interaction %d has %d parameters, %s needs %d", ErrInvalidInteractionList, i, len(in.Params), restraintType, len(r.Units))
		}
	}
	resolved, err := O.resolveInteractions(r, interactions)
	if err != nil {
		return err
	}
	for _, ri := range resolved {
		args := make([]any, 0, len(ri.Atoms)+1)
		for _, a := range ri.Atoms {
			args = append(args, a)
		}
		args = append(args, ri.Params)
		if err := r.Force.Call(r.Method, args...); err != nil {
			return fmt.Errorf("adding interaction to %s: %w", restraintType, err)
		}
	}
	slog.Debug("restraint interactions added", "type", restraintType, "given", len(interactions), "added", len(resolved))
	return nil
}

// resolveInteractions turns interactions into atom indexes and scaled parameters,
// dropping those with any unresolved atom.
func (O *OmmSystem) resolveInteractions(r *RegisteredRestraint, interactions []restraints.Interaction) ([]ResolvedInteraction, error) {
	ret := make([]ResolvedInteraction, 0, len(interactions))
	if len(interactions) == 0 {
		return ret, nil
	}
	if O.topology == nil {
		return nil, ErrNoTopology
	}
interactions:
	for _, in := range interactions {
		atoms := make([]int, len(in.Atoms))
		for j, ra := range in.Atoms {
			idx, err := O.resolveAtom(ra.Residue, ra.Name)
			if err != nil {
				return nil, err
			}
			if idx < 0 {
				slog.Debug("skipping interaction with unresolved atom", "atom", ra.String(), "interaction", in.Atoms)
				continue interactions
			}
			atoms[j] = idx
		}
		params := make([]float64, len(in.Params))
		for j, p := range in.Params {
			params[j] = p * r.Units[j]
		}
		ret = append(ret, ResolvedInteraction{Atoms: atoms, Params: params})
	}
	return ret, nil
}

// resolveAtom returns the index of the only atom with the given residue number (starting
// from 1) and name, or -1 if there is no such atom, or more than one.
func (O *OmmSystem) resolveAtom(residue int, name string) (int, error) {
	if O.topology == nil {
		return -1, ErrNoTopology
	}
	return O.topology.AtomIndex(residue, name), nil
}

// ApplyRestraintForce adds the force of the given restraint type to the system.
// Applying the same type twice adds the force twice.
func (O *OmmSystem) ApplyRestraintForce(restraintType string) error {
	r, ok := O.registry.Get(restraintType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRestraintType, restraintType)
	}
	i := O.System.AddForce(r.Force)
	slog.Debug("restraint force applied", "type", restraintType, "index", i, "terms", r.Force.Len())
	return nil
}
