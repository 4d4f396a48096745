package openmm

import (
	"fmt"
	"slices"
)

// Nonbonded methods, with the engine's numbering.
const (
	NoCutoff          = 0
	CutoffNonPeriodic = 1
	CutoffPeriodic    = 2
	Ewald             = 3
	PME               = 4
	LJPME             = 5
)

var nonbondedMethodNames = map[string]int{
	"NoCutoff":          NoCutoff,
	"CutoffNonPeriodic": CutoffNonPeriodic,
	"CutoffPeriodic":    CutoffPeriodic,
	"Ewald":             Ewald,
	"PME":               PME,
	"LJPME":             LJPME,
}

// parses a nonbonded method given either by name or by number, and checks that
// it is not larger than maxMethod.
func parseNonbondedMethod(class, method string, args []any, maxMethod int) (int, error) {
	if err := nargs(class, method, args, 1); err != nil {
		return 0, err
	}
	if s, ok := args[0].(string); ok {
		if m, ok := nonbondedMethodNames[s]; ok && m <= maxMethod {
			return m, nil
		}
	}
	m, err := toInt(args[0])
	if err != nil {
		return 0, argError(class, method, fmt.Errorf("unknown nonbonded method %v", args[0]))
	}
	if m < 0 || m > maxMethod {
		return 0, argError(class, method, fmt.Errorf("nonbonded method %d out of range", m))
	}
	return m, nil
}

// Default cutoff, in nm
const defaultCutoff = 1.0

// NBParticle contains the nonbonded parameters of one particle:
// the charge (e), and the Lennard-Jones sigma (nm) and epsilon (kJ/mol).
type NBParticle struct {
	Charge  float64
	Sigma   float64
	Epsilon float64
}

// NBException replaces the nonbonded interaction between two particles.
type NBException struct {
	P1, P2     int
	ChargeProd float64
	Sigma      float64
	Epsilon    float64
}

// NonbondedForce is the standard Coulomb plus Lennard-Jones force.
type NonbondedForce struct {
	base
	particles     []NBParticle
	exceptions    []NBException
	method        int
	cutoff        float64
	ewaldTol      float64
	dispersionCor bool
}

// NewNonbondedForce returns an empty NonbondedForce, without cutoff.
func NewNonbondedForce() *NonbondedForce {
	return &NonbondedForce{base: base{class: "NonbondedForce"}, cutoff: defaultCutoff, ewaldTol: 5e-4, dispersionCor: true}
}

func (F *NonbondedForce) Len() int {
	return len(F.particles)
}

// Particle returns the parameters of the ith particle. It panics if i is out of range.
func (F *NonbondedForce) Particle(i int) NBParticle {
	return F.particles[i]
}

func (F *NonbondedForce) NumExceptions() int {
	return len(F.exceptions)
}

// Exception returns the ith exception. It panics if i is out of range.
func (F *NonbondedForce) Exception(i int) NBException {
	return F.exceptions[i]
}

func (F *NonbondedForce) NonbondedMethod() int {
	return F.method
}

// CutoffDistance returns the cutoff, in nm.
func (F *NonbondedForce) CutoffDistance() float64 {
	return F.cutoff
}

func (F *NonbondedForce) UsesPeriodicBoundaryConditions() bool {
	return F.method >= CutoffPeriodic
}

// Accepts is true for addException, with two particles.
func (F *NonbondedForce) Accepts(method string, nparticles int) bool {
	return method == "addException" && nparticles == 2
}

// Call invokes the named method. Supported: addParticle(q, sigma, epsilon),
// setParticleParameters(i, q, sigma, epsilon), addException(p1, p2, qprod, sigma, epsilon)
// (the last three may come as one group),
// setNonbondedMethod, setCutoffDistance, setEwaldErrorTolerance, setUseDispersionCorrection,
// setForceGroup and setName.
func (F *NonbondedForce) Call(method string, args ...any) error {
	if ok, err := F.callCommon(method, args); ok {
		return err
	}
	switch method {
	case "addParticle":
		if err := nargs(F.class, method, args, 3); err != nil {
			return err
		}
		p, err := nbParticle(args)
		if err != nil {
			return argError(F.class, method, err)
		}
		F.particles = append(F.particles, p)
		return nil
	case "setParticleParameters":
		if err := nargs(F.class, method, args, 4); err != nil {
			return err
		}
		i, err := toInt(args[0])
		if err != nil || i < 0 || i >= len(F.particles) {
			return argError(F.class, method, fmt.Errorf("invalid particle index %v", args[0]))
		}
		p, err := nbParticle(args[1:])
		if err != nil {
			return argError(F.class, method, err)
		}
		F.particles[i] = p
		return nil
	case "addException":
		args = spreadParams(args, 2)
		if err := nargs(F.class, method, args, 5); err != nil {
			return err
		}
		idx, err := toInts(args, 2)
		if err != nil {
			return argError(F.class, method, err)
		}
		p, err := nbParticle(args[2:])
		if err != nil {
			return argError(F.class, method, err)
		}
		F.exceptions = append(F.exceptions, NBException{P1: idx[0], P2: idx[1], ChargeProd: p.Charge, Sigma: p.Sigma, Epsilon: p.Epsilon})
		return nil
	case "setNonbondedMethod":
		m, err := parseNonbondedMethod(F.class, method, args, LJPME)
		if err != nil {
			return err
		}
		F.method = m
		return nil
	case "setCutoffDistance":
		c, err := positive(F.class, method, args)
		if err != nil {
			return err
		}
		F.cutoff = c
		return nil
	case "setEwaldErrorTolerance":
		t, err := positive(F.class, method, args)
		if err != nil {
			return err
		}
		F.ewaldTol = t
		return nil
	case "setUseDispersionCorrection":
		if err := nargs(F.class, method, args, 1); err != nil {
			return err
		}
		b, err := toBool(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		F.dispersionCor = b
		return nil
	}
	return F.unknown(method)
}

func nbParticle(args []any) (NBParticle, error) {
	var v [3]float64
	for i := range v {
		f, err := toFloat(args[i])
		if err != nil {
			return NBParticle{}, fmt.Errorf("argument %d: %w", i, err)
		}
		v[i] = f
	}
	return NBParticle{Charge: v[0], Sigma: v[1], Epsilon: v[2]}, nil
}

func positive(class, method string, args []any) (float64, error) {
	if err := nargs(class, method, args, 1); err != nil {
		return 0, err
	}
	f, err := toFloat(args[0])
	if err != nil {
		return 0, argError(class, method, err)
	}
	if f <= 0 {
		return 0, argError(class, method, fmt.Errorf("%v is not positive", f))
	}
	return f, nil
}

// CustomNonbondedForce is a pairwise force between all particles (except for the
// exclusions), with a user-given energy expression of r and of per-particle
// parameters (sigma1, sigma2...).
type CustomNonbondedForce struct {
	base
	energy         string
	globals        []GlobalParameter
	perParticle    []string
	particles      [][]float64
	exclusions     [][2]int
	method         int
	cutoff         float64
	switching      bool
	switchDistance float64
	longRange      bool
}

// NewCustomNonbondedForce returns an empty CustomNonbondedForce with the given energy expression.
func NewCustomNonbondedForce(energy string) (*CustomNonbondedForce, error) {
	if energy == "" {
		return nil, fmt.Errorf("CustomNonbondedForce: %w: empty energy expression", ErrArguments)
	}
	return &CustomNonbondedForce{base: base{class: "CustomNonbondedForce"}, energy: energy, cutoff: defaultCutoff, switchDistance: -1}, nil
}

func newCustomNonbondedFromArgs(class string, args []any) (Force, error) {
	if err := nargs(class, "constructor", args, 1); err != nil {
		return nil, err
	}
	e, err := toString(args[0])
	if err != nil {
		return nil, argError(class, "constructor", err)
	}
	return NewCustomNonbondedForce(e)
}

func (F *CustomNonbondedForce) Energy() string {
	return F.energy
}

func (F *CustomNonbondedForce) Len() int {
	return len(F.particles)
}

// Particle returns a copy of the parameters of the ith particle. It panics if i is out of range.
func (F *CustomNonbondedForce) Particle(i int) []float64 {
	return slices.Clone(F.particles[i])
}

func (F *CustomNonbondedForce) PerParticleParameters() []string {
	return slices.Clone(F.perParticle)
}

func (F *CustomNonbondedForce) GlobalParameters() []GlobalParameter {
	return slices.Clone(F.globals)
}

func (F *CustomNonbondedForce) NumExclusions() int {
	return len(F.exclusions)
}

func (F *CustomNonbondedForce) NonbondedMethod() int {
	return F.method
}

func (F *CustomNonbondedForce) CutoffDistance() float64 {
	return F.cutoff
}

// Accepts is true for addExclusion, with two particles and no parameters.
func (F *CustomNonbondedForce) Accepts(method string, nparticles int) bool {
	return method == "addExclusion" && nparticles == 2
}

// Call invokes the named method. Particles are added with a list of
// per-particle parameters, i.e. Call("addParticle", []float64{0.3}).
func (F *CustomNonbondedForce) Call(method string, args ...any) error {
	if ok, err := F.callCommon(method, args); ok {
		return err
	}
	switch method {
	case "addPerParticleParameter":
		if err := nargs(F.class, method, args, 1); err != nil {
			return err
		}
		name, err := toString(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		if len(F.particles) > 0 {
			return argError(F.class, method, fmt.Errorf("can't add parameter %s after particles were added", name))
		}
		F.perParticle = append(F.perParticle, name)
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
	case "addParticle":
		p, err := F.parseParams(method, args)
		if err != nil {
			return err
		}
		F.particles = append(F.particles, p)
		return nil
	case "setParticleParameters":
		if len(args) != 2 {
			return nargs(F.class, method, args, 2)
		}
		i, err := toInt(args[0])
		if err != nil || i < 0 || i >= len(F.particles) {
			return argError(F.class, method, fmt.Errorf("invalid particle index %v", args[0]))
		}
		p, err := F.parseParams(method, args[1:])
		if err != nil {
			return err
		}
		F.particles[i] = p
		return nil
	case "addExclusion":
		args = spreadParams(args, 2)
		if err := nargs(F.class, method, args, 2); err != nil {
			return err
		}
		p, err := toInts(args, 2)
		if err != nil {
			return argError(F.class, method, err)
		}
		F.exclusions = append(F.exclusions, [2]int{p[0], p[1]})
		return nil
	case "setNonbondedMethod":
		m, err := parseNonbondedMethod(F.class, method, args, CutoffPeriodic)
		if err != nil {
			return err
		}
		F.method = m
		return nil
	case "setCutoffDistance":
		c, err := positive(F.class, method, args)
		if err != nil {
			return err
		}
		F.cutoff = c
		return nil
	case "setSwitchingDistance":
		c, err := positive(F.class, method, args)
		if err != nil {
			return err
		}
		F.switchDistance = c
		return nil
	case "setUseSwitchingFunction", "setUseLongRangeCorrection":
		if err := nargs(F.class, method, args, 1); err != nil {
			return err
		}
		b, err := toBool(args[0])
		if err != nil {
			return argError(F.class, method, err)
		}
		if method == "setUseSwitchingFunction" {
			F.switching = b
		} else {
			F.longRange = b
		}
		return nil
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
	}
	return F.unknown(method)
}

func (F *CustomNonbondedForce) parseParams(method string, args []any) ([]float64, error) {
	var p []float64
	var err error
	switch len(args) {
	case 0:
	case 1:
		p, err = toFloats(args[0])
		if err != nil {
			return nil, argError(F.class, method, err)
		}
	default:
		return nil, nargs(F.class, method, args, 1)
	}
	if len(p) != len(F.perParticle) {
		return nil, argError(F.class, method, fmt.Errorf("%d parameters given, the force has %d", len(p), len(F.perParticle)))
	}
	return p, nil
}

// HarmonicBondForce is the standard harmonic bond: k/2 (r - length)^2.
type HarmonicBondForce struct {
	base
	bonds []HarmonicBond
	pbc   bool
}

// HarmonicBond is one bond of a HarmonicBondForce. Length in nm, K in kJ/mol/nm^2.
type HarmonicBond struct {
	P1, P2 int
	Length float64
	K      float64
}

func NewHarmonicBondForce() *HarmonicBondForce {
	return &HarmonicBondForce{base: base{class: "HarmonicBondForce"}}
}

func (F *HarmonicBondForce) Len() int {
	return len(F.bonds)
}

// Bond returns the ith bond. It panics if i is out of range.
func (F *HarmonicBondForce) Bond(i int) HarmonicBond {
	return F.bonds[i]
}

func (F *HarmonicBondForce) Accepts(method string, nparticles int) bool {
	return method == "addBond" && nparticles == 2
}

// Call invokes the named method. Supported: addBond(p1, p2, length, k) or
// addBond(p1, p2, []float64{length, k}),
// setUsesPeriodicBoundaryConditions, setForceGroup and setName.
func (F *HarmonicBondForce) Call(method string, args ...any) error {
	if ok, err := F.callCommon(method, args); ok {
		return err
	}
	switch method {
	case "addBond":
		args = spreadParams(args, 2)
		if err := nargs(F.class, method, args, 4); err != nil {
			return err
		}
		p, err := toInts(args, 2)
		if err != nil {
			return argError(F.class, method, err)
		}
		l, err := toFloat(args[2])
		if err != nil {
			return argError(F.class, method, err)
		}
		k, err := toFloat(args[3])
		if err != nil {
			return argError(F.class, method, err)
		}
		F.bonds = append(F.bonds, HarmonicBond{P1: p[0], P2: p[1], Length: l, K: k})
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
