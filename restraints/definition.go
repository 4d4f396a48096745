package restraints

import (
	"fmt"
	"slices"

	"github.com/spf13/cast"
)

// Call is a method invocation on a force object.
type Call struct {
	Method string
	Args   []any
}

// InteractionSpec says how each interaction is added to the force: the method to call,
// the number of atoms it takes, and the factors that convert each parameter from
// the units of the restraint files to the units of the engine.
type InteractionSpec struct {
	Method string
	Arity  int
	Units  []float64
}

// Definition is a declarative recipe to build a restraint force.
type Definition struct {
	// RestraintType is the class of the force to build, i.e. CustomBondForce
	RestraintType string
	// Formula contains the arguments for the force constructor
	Formula     []any
	SetupCalls  []Call
	Interaction InteractionSpec
}

// Validate checks the structure of the definition. All the errors wrap
// ErrMalformedDefinition.
func (D *Definition) Validate() error {
	if D == nil {
		return fmt.Errorf("%w: nil definition", ErrMalformedDefinition)
	}
	if D.RestraintType == "" {
		return fmt.Errorf("%w: no restraint type", ErrMalformedDefinition)
	}
	for i, c := range D.SetupCalls {
		if c.Method == "" {
			return fmt.Errorf("%w: %s: setup call %d has no method", ErrMalformedDefinition, D.RestraintType, i)
		}
	}
	if D.Interaction.Method == "" {
		return fmt.Errorf("%w: %s: no interaction method", ErrMalformedDefinition, D.RestraintType)
	}
	if D.Interaction.Arity <= 0 {
		return fmt.Errorf("%w: %s: interaction arity must be positive, got %d", ErrMalformedDefinition, D.RestraintType, D.Interaction.Arity)
	}
	return nil
}

// Copy returns a deep copy of the definition. Argument values are copied shallowly.
func (D *Definition) Copy() *Definition {
	ret := &Definition{
		RestraintType: D.RestraintType,
		Formula:       slices.Clone(D.Formula),
		Interaction: InteractionSpec{
			Method: D.Interaction.Method,
			Arity:  D.Interaction.Arity,
			Units:  slices.Clone(D.Interaction.Units),
		},
	}
	for _, c := range D.SetupCalls {
		ret.SetupCalls = append(ret.SetupCalls, Call{Method: c.Method, Args: slices.Clone(c.Args)})
	}
	return ret
}

// ParseRestraintDefinition builds a Definition from its loosely-typed form, as found in
// YAML or JSON documents:
//
//	CustomBondForce:
//	  formula: ["step(r-r0)*k*(r-r0)^2"]
//	  parameters:
//	    - addPerBondParameter: [r0]
//	    - addGlobalParameter: [k, 1000]
//	  restraint:
//	    addBond: [2, 1]
//	  units: [0.1]
//
// The only key is the force class. restraint has exactly one key, the interaction
// method, with the number of atoms per interaction and the number of parameters,
// which has to match the length of units. Each element of parameters has exactly
// one key. formula, parameters and units are optional.
func ParseRestraintDefinition(raw map[string]any) (*Definition, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one restraint type, got %d", ErrMalformedDefinition, len(raw))
	}
	var class string
	for k := range raw {
		class = k
	}
	body, err := cast.ToStringMapE(raw[class])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: definition is not a mapping", ErrMalformedDefinition, class)
	}
	D := &Definition{RestraintType: class}
	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrMalformedDefinition, class, fmt.Sprintf(format, args...))
	}

	if f, ok := body["formula"]; ok && f != nil {
		if D.Formula, err = cast.ToSliceE(f); err != nil {
			return nil, malformed("formula is not a list")
		}
	}

	if p, ok := body["parameters"]; ok && p != nil {
		calls, err := cast.ToSliceE(p)
		if err != nil {
			return nil, malformed("parameters is not a list")
		}
		for i, c := range calls {
			method, args, err := singleCall(c)
			if err != nil {
				return nil, malformed("parameters entry %d: %v", i, err)
			}
			D.SetupCalls = append(D.SetupCalls, Call{Method: method, Args: args})
		}
	}

	if u, ok := body["units"]; ok && u != nil {
		units, err := cast.ToSliceE(u)
		if err != nil {
			return nil, malformed("units is not a list")
		}
		for i, v := range units {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, malformed("unit %d (%v) is not a number", i, v)
			}
			D.Interaction.Units = append(D.Interaction.Units, f)
		}
	}

	method, args, err := singleCall(body["restraint"])
	if err != nil {
		return nil, malformed("restraint: %v", err)
	}
	if len(args) != 2 {
		return nil, malformed("restraint %s needs the number of atoms and of parameters, got %v", method, args)
	}
	arity, ok := exactInt(args[0])
	if !ok {
		return nil, malformed("number of atoms %v is not an integer", args[0])
	}
	nunits, ok := exactInt(args[1])
	if !ok || nunits != len(D.Interaction.Units) {
		return nil, malformed("%v parameters declared but %d units given", args[1], len(D.Interaction.Units))
	}
	D.Interaction.Method = method
	D.Interaction.Arity = arity
	if err := D.Validate(); err != nil {
		return nil, err
	}
	return D, nil
}

// singleCall reads a mapping with exactly one key, the method name, whose value is
// the list of arguments.
func singleCall(v any) (string, []any, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil || len(m) != 1 {
		return "", nil, fmt.Errorf("expected a mapping with exactly one method, got %v", v)
	}
	var method string
	for k := range m {
		method = k
	}
	if m[method] == nil {
		return method, nil, nil
	}
	args, err := cast.ToSliceE(m[method])
	if err != nil {
		return "", nil, fmt.Errorf("arguments of %s are not a list", method)
	}
	return method, args, nil
}

// exactInt accepts only integer types, not floats or strings that look like integers.
func exactInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := cast.ToIntE(n)
		return i, err == nil
	}
	return 0, false
}
