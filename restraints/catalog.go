package restraints

import (
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// Catalog maps restraint kinds (distance, torsion...) to the definition of
// the force that implements them.
type Catalog map[string]*Definition

// Definition returns a copy of the definition for the given kind.
func (C Catalog) Definition(kind string) (*Definition, error) {
	d, ok := C[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no definition for %q", ErrUnsupportedRestraintType, kind)
	}
	return d.Copy(), nil
}

// Kinds returns the restraint kinds in the catalog, sorted.
func (C Catalog) Kinds() []string {
	ret := make([]string, 0, len(C))
	for k := range C {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Merge returns a new catalog with the definitions of C, replaced or extended with those of other.
func (C Catalog) Merge(other Catalog) Catalog {
	ret := make(Catalog, len(C)+len(other))
	for k, v := range C {
		ret[k] = v
	}
	for k, v := range other {
		ret[k] = v
	}
	return ret
}

// LoadDefinitions decodes a YAML catalog, a mapping from restraint kind to
// definition (see ParseRestraintDefinition), and validates every definition.
func LoadDefinitions(r io.Reader) (Catalog, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding restraint definitions: %w", err)
	}
	C := make(Catalog, len(doc))
	for kind, v := range doc {
		raw, err := cast.ToStringMapE(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: definition is not a mapping", ErrMalformedDefinition, kind)
		}
		d, err := ParseRestraintDefinition(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		C[kind] = d
	}
	return C, nil
}

// LoadDefinitionsFile reads a YAML catalog from the named file in the OS
// filesystem. See LoadDefinitionsFs.
func LoadDefinitionsFile(name string) (Catalog, error) {
	return LoadDefinitionsFs(afero.NewOsFs(), name)
}

// LoadDefinitionsFs reads a YAML catalog from the named file in fs.
func LoadDefinitionsFs(fs afero.Fs, name string) (Catalog, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	C, err := LoadDefinitions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return C, nil
}

// Distances in restraint files are in A, the engine uses nm.
const angstrom2nm = 0.1

const deg2rad = 0.0174533

// Builtin returns the default catalog:
//
// distance: a flat-bottomed CustomBondForce. The energy is zero up to r0, the
// distance read from the restraint file, and grows harmonically beyond it.
//
// torsion: a CustomTorsionForce centered at theta0, given in degrees in the files.
func Builtin() Catalog {
	return Catalog{
		"distance": &Definition{
			RestraintType: "CustomBondForce",
			Formula:       []any{"step(r-r0)*k*(r-r0)^2"},
			SetupCalls: []Call{
				{Method: "addPerBondParameter", Args: []any{"r0"}},
				{Method: "addGlobalParameter", Args: []any{"k", 1000.0}},
			},
			Interaction: InteractionSpec{Method: "addBond", Arity: 2, Units: []float64{angstrom2nm}},
		},
		"torsion": &Definition{
			RestraintType: "CustomTorsionForce",
			Formula:       []any{"k*(1-cos(theta-theta0))"},
			SetupCalls: []Call{
				{Method: "addPerTorsionParameter", Args: []any{"theta0"}},
				{Method: "addGlobalParameter", Args: []any{"k", 10.0}},
			},
			Interaction: InteractionSpec{Method: "addTorsion", Arity: 4, Units: []float64{deg2rad}},
		},
	}
}
