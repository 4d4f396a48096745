package openmm

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"

	v3 "github.com/rbdavid/exafold/v3"
)

// EnergyEvaluator computes the energy of the terms of a custom bonded force for
// a given set of coordinates. Energy expressions follow the engine's syntax:
// the energy comes first, optionally followed by ';'-separated intermediate
// definitions (name = expression), each of which can use the ones after it.
type EnergyEvaluator struct {
	force *CustomBondedForce
	env   map[string]any
	//definitions are stored in evaluation order, i.e. the last one first.
	defs   []definition
	energy *vm.Program
}

type definition struct {
	name    string
	program *vm.Program
}

// NewEnergyEvaluator compiles the energy expression of F.
func NewEnergyEvaluator(F *CustomBondedForce) (*EnergyEvaluator, error) {
	parts := strings.Split(F.energy, ";")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%s: empty energy expression", F.class)
	}
	E := &EnergyEvaluator{force: F, env: make(map[string]any)}
	for _, v := range F.kind.variables {
		E.env[v] = 0.0
	}
	for _, g := range F.globals {
		E.env[g.Name] = g.Default
	}
	for _, p := range F.perTerm {
		E.env[p] = 0.0
	}
	names := make([]string, len(segs)-1)
	bodies := make([]string, len(segs)-1)
	for i, s := range segs[1:] {
		name, body, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%s: invalid definition %q in energy expression", F.class, s)
		}
		names[i], bodies[i] = name, body
		E.env[name] = 0.0
	}
	opts := exprOptions(E.env)
	var err error
	E.energy, err = expr.Compile(segs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: compiling energy %q: %w", F.class, segs[0], err)
	}
	for i := len(names) - 1; i >= 0; i-- {
		p, err := expr.Compile(bodies[i], opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: compiling definition of %s: %w", F.class, names[i], err)
		}
		E.defs = append(E.defs, definition{name: names[i], program: p})
	}
	return E, nil
}

// Measure returns the geometric variable of the ith term: the distance for
// bonds, the angle (radians) for angles and torsions, and the x coordinate
// for external forces.
func (E *EnergyEvaluator) Measure(coords *v3.Matrix, i int) (float64, error) {
	if i < 0 || i >= len(E.force.terms) {
		return 0, fmt.Errorf("term %d out of range (%d terms)", i, len(E.force.terms))
	}
	p := E.force.terms[i].Particles
	if len(p) < 1 || len(p) > 4 {
		return 0, fmt.Errorf("term %d has %d particles", i, len(p))
	}
	sub := v3.Zeros(len(p))
	if err := sub.SomeVecsSafe(coords, p); err != nil {
		return 0, fmt.Errorf("term %d: particles %v not in coordinates (%d particles): %w", i, p, coords.NVecs(), err)
	}
	switch len(p) {
	case 1:
		return sub.At(0, 0), nil
	case 2:
		return v3.Distance(sub, 0, 1), nil
	case 3:
		return v3.Angle(sub, 0, 1, 2), nil
	}
	return v3.Dihedral(sub, 0, 1, 2, 3), nil
}

// TermEnergy returns the energy of the ith term for the given coordinates, which need to
// be in the units the force's parameters use (nm, for the engine).
func (E *EnergyEvaluator) TermEnergy(coords *v3.Matrix, i int) (float64, error) {
	m, err := E.Measure(coords, i)
	if err != nil {
		return 0, err
	}
	env := make(map[string]any, len(E.env))
	for k, v := range E.env {
		env[k] = v
	}
	t := E.force.terms[i]
	vars := E.force.kind.variables
	if len(vars) == 3 {
		env["x"] = coords.At(t.Particles[0], 0)
		env["y"] = coords.At(t.Particles[0], 1)
		env["z"] = coords.At(t.Particles[0], 2)
	} else {
		env[vars[0]] = m
	}
	for j, name := range E.force.perTerm {
		env[name] = t.Params[j]
	}
	for _, d := range E.defs {
		v, err := run(d.program, env)
		if err != nil {
			return 0, fmt.Errorf("term %d, %s: %w", i, d.name, err)
		}
		env[d.name] = v
	}
	v, err := run(E.energy, env)
	if err != nil {
		return 0, fmt.Errorf("term %d: %w", i, err)
	}
	return v, nil
}

// Energy returns the sum of the energies of all the terms of the force.
func (E *EnergyEvaluator) Energy(coords *v3.Matrix) (float64, error) {
	var sum float64
	for i := range E.force.terms {
		e, err := E.TermEnergy(coords, i)
		if err != nil {
			return 0, err
		}
		sum += e
	}
	return sum, nil
}

func run(p *vm.Program, env map[string]any) (float64, error) {
	out, err := expr.Run(p, env)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(out)
	if err != nil {
		return 0, fmt.Errorf("expression result %v is not a number", out)
	}
	return f, nil
}

func exprOptions(env map[string]any) []expr.Option {
	opts := []expr.Option{
		expr.Env(env),
		function("step", 1, func(x []float64) float64 {
			if x[0] >= 0 {
				return 1
			}
			return 0
		}),
		function("delta", 1, func(x []float64) float64 {
			if x[0] == 0 {
				return 1
			}
			return 0
		}),
		function("select", 3, func(x []float64) float64 {
			if x[0] != 0 {
				return x[1]
			}
			return x[2]
		}),
		function("atan2", 2, func(x []float64) float64 { return math.Atan2(x[0], x[1]) }),
	}
	unary := map[string]func(float64) float64{
		"sqrt": math.Sqrt, "exp": math.Exp, "log": math.Log,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
		"erf": math.Erf, "erfc": math.Erfc,
	}
	for name, f := range unary {
		f := f
		opts = append(opts, function(name, 1, func(x []float64) float64 { return f(x[0]) }))
	}
	return opts
}

// function declares a numeric function of n arguments for the expression language.
func function(name string, n int, f func([]float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) != n {
			return nil, fmt.Errorf("%s expects %d arguments, got %d", name, n, len(params))
		}
		x := make([]float64, n)
		for i, p := range params {
			v, err := cast.ToFloat64E(p)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", name, i, err)
			}
			x[i] = v
		}
		return f(x), nil
	})
}
