package openmm

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownForce is returned when a force class is not in the constructor table.
	ErrUnknownForce = errors.New("unknown force class")
	// ErrUnknownMethod is returned when a force class has no method with the requested name.
	ErrUnknownMethod = errors.New("unknown force method")
	// ErrArguments is returned when a method or constructor gets the wrong number or type of arguments.
	ErrArguments = errors.New("invalid arguments")
	// ErrFormat is returned when a serialized system can't be understood.
	ErrFormat = errors.New("malformed system file")
)

// Force is one of the force objects a System can hold.
// Methods are invoked by name, with loosely typed arguments, through Call.
// The set of implementations is closed.
type Force interface {
	// Class is the engine class name, i.e. CustomBondForce
	Class() string
	Name() string
	ForceGroup() int
	// Len returns the number of terms (bonds, particles, torsions...) in the force.
	Len() int
	// Call invokes the named method with the given arguments.
	Call(method string, args ...any) error
	// Accepts reports whether method adds a term made of nparticles particle
	// indexes followed by one parameter group.
	Accepts(method string, nparticles int) bool
	toXML() *xmlNode
}

// Maximum force group index allowed by the engine
const maxForceGroup = 31

// Data and methods shared by all the forces.
type base struct {
	class string
	name  string
	group int
}

func (b *base) Class() string {
	return b.class
}

// Name returns the name of the force, which defaults to its class.
func (b *base) Name() string {
	if b.name == "" {
		return b.class
	}
	return b.name
}

func (b *base) ForceGroup() int {
	return b.group
}

// callCommon handles the methods every force has. It returns false if
// method is not one of them.
func (b *base) callCommon(method string, args []any) (bool, error) {
	switch method {
	case "setForceGroup":
		if err := nargs(b.class, method, args, 1); err != nil {
			return true, err
		}
		g, err := toInt(args[0])
		if err != nil {
			return true, argError(b.class, method, err)
		}
		if g < 0 || g > maxForceGroup {
			return true, argError(b.class, method, fmt.Errorf("force group must be in [0,%d], got %d", maxForceGroup, g))
		}
		b.group = g
		return true, nil
	case "setName":
		if err := nargs(b.class, method, args, 1); err != nil {
			return true, err
		}
		s, err := toString(args[0])
		if err != nil {
			return true, argError(b.class, method, err)
		}
		b.name = s
		return true, nil
	}
	return false, nil
}

func (b *base) unknown(method string) error {
	return fmt.Errorf("%s.%s: %w", b.class, method, ErrUnknownMethod)
}

// GlobalParameter is a parameter shared by all the terms of a custom force.
type GlobalParameter struct {
	Name    string
	Default float64
}

type constructor func(class string, args []any) (Force, error)

var constructors = map[string]constructor{
	"CustomBondForce":      newCustomBondedFromArgs,
	"CustomAngleForce":     newCustomBondedFromArgs,
	"CustomTorsionForce":   newCustomBondedFromArgs,
	"CustomExternalForce":  newCustomBondedFromArgs,
	"CustomNonbondedForce": newCustomNonbondedFromArgs,
	"NonbondedForce": func(class string, args []any) (Force, error) {
		if err := nargs(class, "constructor", args, 0); err != nil {
			return nil, err
		}
		return NewNonbondedForce(), nil
	},
	"HarmonicBondForce": func(class string, args []any) (Force, error) {
		if err := nargs(class, "constructor", args, 0); err != nil {
			return nil, err
		}
		return NewHarmonicBondForce(), nil
	},
}

// NewForce builds a force of the given class, passing args to its constructor.
// Custom forces take their energy expression as only argument, the other classes
// take no arguments.
func NewForce(class string, args ...any) (Force, error) {
	c, ok := constructors[class]
	if !ok {
		return nil, fmt.Errorf("%q: %w", class, ErrUnknownForce)
	}
	return c(class, args)
}

// Classes returns the names of the force classes NewForce can build, sorted.
func Classes() []string {
	ret := make([]string, 0, len(constructors))
	for k := range constructors {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
