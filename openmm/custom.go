package openmm

import (
	"fmt"
	"slices"
)

// describes one of the custom forces whose terms are a fixed number of particles
// plus a vector of per-term parameters.
type bondedKind struct {
	arity     int
	add       string //method that adds a term, i.e. addBond
	set       string //method that changes a term, i.e. setBondParameters
	perParam  string //method that declares a per-term parameter
	perTag    string //XML element listing the per-term parameters
	listTag   string //XML element listing the terms
	itemTag   string
	particles []string //XML attributes for the particle indexes
	variables []string //geometric variables available to the energy expression
}

var bondedKinds = map[string]bondedKind{
	"CustomBondForce": {
		arity: 2, add: "addBond", set: "setBondParameters", perParam: "addPerBondParameter",
		perTag: "PerBondParameters", listTag: "Bonds", itemTag: "Bond",
		particles: []string{"p1", "p2"}, variables: []string{"r"},
	},
	"CustomAngleForce": {
		arity: 3, add: "addAngle", set: "setAngleParameters", perParam: "addPerAngleParameter",
		perTag: "PerAngleParameters", listTag: "Angles", itemTag: "Angle",
		particles: []string{"p1", "p2", "p3"}, variables: []string{"theta"},
	},
	"CustomTorsionForce": {
		arity: 4, add: "addTorsion", set: "setTorsionParameters", perParam: "addPerTorsionParameter",
		perTag: "PerTorsionParameters", listTag: "Torsions", itemTag: "Torsion",
		particles: []string{"p1", "p2", "p3", "p4"}, variables: []string{"theta"},
	},
	"CustomExternalForce": {
		arity: 1, add: "addParticle", set: "setParticleParameters", perParam: "addPerParticleParameter",
		perTag: "PerParticleParameters", listTag: "Particles", itemTag: "Particle",
		particles: []string{"index"}, variables: []string{"x", "y", "z"},
	},
}

// Term is one bond, angle, torsion or particle of a custom force.
type Term struct {
	Particles []int
	Params    []float64
}

// CustomBondedForce implements the CustomBondForce, CustomAngleForce,
// CustomTorsionForce and CustomExternalForce classes. They only differ in the
// number of particles per term and in the names of their methods.
type CustomBondedForce struct {
	base
	kind    bondedKind
	energy  string
	globals []GlobalParameter
	perTerm []string
	terms   []Term
	pbc     bool
}

// NewCustomBondedForce returns a custom force of the given class with the given energy expression.
func NewCustomBondedForce(class, energy string) (*CustomBondedForce, error) {
	k, ok := bondedKinds[class]
	if !ok {
		return nil, fmt.Errorf("%q is not a custom bonded force: %w", class, ErrUnknownForce)
	}
	if energy == "" {
		return nil, fmt.Errorf("%s: %w: empty energy expression", class, ErrArguments)
	}
	return &CustomBondedForce{base: base{class: class}, kind: k, energy: energy}, nil
}

func newCustomBondedFromArgs(class string, args []any) (Force, error) {
	if err := nargs(class, "constructor", args, 1); err != nil {
		return nil, err
	}
	energy, err := toString(args[0])
	if err != nil {
		return nil, argError(class, "constructor", err)
	}
	return NewCustomBondedForce(class, energy)
}

// Energy returns the energy expression of the force.
func (F *CustomBondedForce) Energy() string {
	return F.energy
}

func (F *CustomBondedForce) Accepts(method string, nparticles int) bool {
	return method == F.kind.add && nparticles == F.kind.arity
}

// Arity is the number of particles in each term.
func (F *CustomBondedForce) Arity() int {
	return F.kind.arity
}

func (F *CustomBondedForce) Len() int {
	return len(F.terms)
}

// Term returns a copy of the ith term. It panics if i is out of range.
func (F *CustomBondedForce) Term(i int) Term {
	t := F.terms[i]
	return Term{Particles: slices.Clone(t.Particles), Params: slices.Clone(t.Params)}
}

// PerTermParameters returns the names of the per-bond (per-angle, etc.) parameters.
func (F *CustomBondedForce) PerTermParameters() []string {
	return slices.Clone(F.perTerm)
}

// GlobalParameters returns the global parameters of the force with their default values.
func (F *CustomBondedForce) GlobalParameters() []GlobalParameter {
	return slices.Clone(F.globals)
}

func (F *CustomBondedForce) UsesPeriodicBoundaryConditions() bool {
	return F.pbc
}

// Call invokes the method with the given name. Terms are added as the
// particle indexes followed by one list with the per-term parameters,
// i.e. Call("addBond", 0, 1, []float64{0.3}).
func (F *CustomBondedForce) Call(method string, args ...any) error {
	if ok, err := F.callCommon(method, args); ok {
		return err
	}
	switch method {
	case F.kind.add:
		t, err := F.parseTerm(method, args)
		if err != nil {
			return err
		}
		F.terms = append(F.terms, t)
		return nil
	case F.kind.set:
		if len(args) < 1 {
			return nargs(F.class, method, args, F.kind.arity+2)
		}
		i, err := toInt(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		if i < 0 || i >= len(F.terms) {
			return argError(F.class, method, fmt.Errorf("term %d out of range (%d terms)", i, len(F.terms)))
		}
		t, err := F.parseTerm(method, args[1:])
		if err != nil {
			return err
		}
		F.terms[i] = t
		return nil
	case F.kind.perParam:
		if err := nargs(F.class, method, args, 1); err != nil {
			return err
		}
		name, err := toString(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		if len(F.terms) > 0 {
			return argError(F.class, method, fmt.Errorf("can't add parameter %s after terms were added", name))
		}
		F.perTerm = append(F.perTerm, name)
		return nil
	case "addGlobalParameter":
		g, err := parseGlobal(F.class, method, args)
		if err != nil {
			return err
		}
		F.globals = append(F.globals, g)
		return nil
	case "setGlobalParameterDefaultValue":
		return setGlobalDefault(F.class, method, F.globals, args)
	case "setEnergyFunction":
		if err := nargs(F.class, method, args, 1); err != nil {
			return err
		}
		e, err := toString(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		F.energy = e
		return nil
	case "setUsesPeriodicBoundaryConditions":
		if err := nargs(F.class, method, args, 1); err != nil {
			return err
		}
		b, err := toBool(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		F.pbc = b
		return nil
	}
	return F.unknown(method)
}

// parseTerm reads arity particle indexes and, if the force has per-term
// parameters, the list of their values.
func (F *CustomBondedForce) parseTerm(method string, args []any) (Term, error) {
	n := F.kind.arity
	want := n
	if len(F.perTerm) > 0 {
		want++
	}
	if len(args) != want && len(args) != n+1 {
		return Term{}, nargs(F.class, method, args, want)
	}
	p, err := toInts(args, n)
	if err != nil {
		return Term{}, argError(F.class, method, err)
	}
	for _, v := range p {
		if v < 0 {
			return Term{}, argError(F.class, method, fmt.Errorf("negative particle index %d", v))
		}
	}
	var params []float64
	if len(args) > n {
		params, err = toFloats(args[n])
		if err != nil {
			return Term{}, argError(F.class, method, err)
		}
	}
	if len(params) != len(F.perTerm) {
		return Term{}, argError(F.class, method, fmt.Errorf("%d parameters given, the force has %d", len(params), len(F.perTerm)))
	}
	return Term{Particles: p, Params: params}, nil
}

func parseGlobal(class, method string, args []any) (GlobalParameter, error) {
	if err := nargs(class, method, args, 2); err != nil {
		return GlobalParameter{}, err
	}
	name, err := toString(args[0])
	if err != nil {
		return GlobalParameter{}, argError(class, method, err)
	}
	def, err := toFloat(args[1])
	if err != nil {
		return GlobalParameter{}, argError(class, method, err)
	}
	if name == "" {
		return GlobalParameter{}, argError(class, method, fmt.Errorf("empty parameter name"))
	}
	return GlobalParameter{Name: name, Default: def}, nil
}

// setGlobalDefault takes the index of the parameter and its new default.
func setGlobalDefault(class, method string, globals []GlobalParameter, args []any) error {
	if err := nargs(class, method, args, 2); err != nil {
		return err
	}
	i, err := toInt(args[0])
	if err != nil {
		return argError(class, method, err)
	}
	if i < 0 || i >= len(globals) {
		return argError(class, method, fmt.Errorf("global parameter %d out of range", i))
	}
	v, err := toFloat(args[1])
	if err != nil {
		return argError(class, method, err)
	}
	globals[i].Default = v
	return nil
}
