package mdsystem

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	chem "github.com/rbdavid/exafold"
	"github.com/rbdavid/exafold/amber"
	"github.com/rbdavid/exafold/openmm"
	v3 "github.com/rbdavid/exafold/v3"
)

// Options selects how a system is built. FFType and SystemFile are mutually exclusive.
type Options struct {
	// FFType is the force field family of the Topology and Coordinates files.
	// Only "amber" (prmtop and inpcrd) is supported.
	FFType string
	// SystemFile is a serialized system (see openmm.ReadXMLFile).
	SystemFile string
	// Topology is a prmtop file for amber systems, or, with SystemFile, an
	// optional structure (pdb or prmtop) for the system.
	Topology    string
	Coordinates string
}

// OmmSystem is an engine system plus the topology used to locate atoms in it.
type OmmSystem struct {
	System    *openmm.System
	topology  *chem.Topology
	positions *v3.Matrix
	registry  *Registry
	//force taken out by RemoveNonbondedForces or RemoveRepulsiveForce
	removed openmm.Force
}

// New builds an OmmSystem. With no FFType and no SystemFile, the system is
// empty and has no topology.
func New(opts Options) (*OmmSystem, error) {
	if opts.FFType != "" && opts.SystemFile != "" {
		return nil, errors.New("a force field type and a system file can't be given together")
	}
	O := NewFromSystem(openmm.NewSystem(), nil)
	switch {
	case opts.FFType != "":
		if strings.ToLower(opts.FFType) != "amber" {
			return nil, fmt.Errorf("unsupported force field type %q", opts.FFType)
		}
		if err := O.buildAmber(opts.Topology, opts.Coordinates); err != nil {
			return nil, err
		}
	case opts.SystemFile != "":
		if err := O.LoadXML(opts.SystemFile); err != nil {
			return nil, err
		}
		if opts.Topology != "" {
			if err := O.loadTopology(opts.Topology); err != nil {
				return nil, err
			}
		}
	}
	return O, nil
}

// NewFromSystem wraps an existing system. top can be nil.
func NewFromSystem(S *openmm.System, top *chem.Topology) *OmmSystem {
	return &OmmSystem{System: S, topology: top, registry: NewRegistry()}
}

// Topology returns the topology of the system, or nil if there is none.
func (O *OmmSystem) Topology() *chem.Topology {
	return O.topology
}

func (O *OmmSystem) SetTopology(top *chem.Topology) {
	O.topology = top
}

// InitialPositions returns the coordinates (A) the system was built with,
// or nil if they are not known.
func (O *OmmSystem) InitialPositions() *v3.Matrix {
	return O.positions
}

func (O *OmmSystem) SetInitialPositions(pos *v3.Matrix) {
	O.positions = pos
}

// Restraints returns the registered restraint types, in registration order.
func (O *OmmSystem) Restraints() []string {
	return O.registry.Types()
}

// Restraint returns the registered restraint of the given type.
func (O *OmmSystem) Restraint(restraintType string) (*RegisteredRestraint, bool) {
	return O.registry.Get(restraintType)
}

// buildAmber creates the particles and a NonbondedForce without cutoff from
// a prmtop file, and takes the initial positions and box from an inpcrd file.
// Bonded force field terms are not built.
func (O *OmmSystem) buildAmber(prmtop, inpcrd string) error {
	if prmtop == "" || inpcrd == "" {
		return errors.New("amber systems need a topology and a coordinates file")
	}
	P, err := amber.ReadPrmtopFile(prmtop)
	if err != nil {
		return err
	}
	top, err := P.Topology()
	if err != nil {
		return err
	}
	coords, box, err := amber.ReadInpcrdFile(inpcrd)
	if err != nil {
		return err
	}
	if coords.NVecs() != top.Len() {
		return fmt.Errorf("%s has %d atoms but %s has %d coordinates", prmtop, top.Len(), inpcrd, coords.NVecs())
	}
	//extra points have no mass, so Topology.Masses can't be used here
	for _, at := range top.Atoms {
		O.System.AddParticle(at.Mass)
	}
	charges, sigmas, epsilons, err := P.NonbondedParameters()
	if err == nil {
		nb := openmm.NewNonbondedForce()
		for i := range charges {
			if err := nb.Call("addParticle", charges[i], sigmas[i], epsilons[i]); err != nil {
				return err
			}
		}
		O.System.AddForce(nb)
	} else {
		slog.Debug("no nonbonded parameters in prmtop", "file", prmtop, "error", err)
	}
	if len(box) == 6 {
		if a, b, c, ok := boxVectors(box); ok {
			O.System.SetDefaultPeriodicBoxVectors(a, b, c)
		}
	}
	O.topology = top
	O.positions = coords
	return nil
}

// boxVectors converts box lengths (A) and angles (degrees) to box vectors in nm.
// Only rectangular boxes are supported.
func boxVectors(box []float64) (a, b, c [3]float64, ok bool) {
	for _, angle := range box[3:] {
		if math.Abs(angle-90) > 1e-3 {
			return a, b, c, false
		}
	}
	a[0], b[1], c[2] = box[0]/10, box[1]/10, box[2]/10
	return a, b, c, true
}

// loadTopology reads the topology, and the positions if the file has them, from a
// pdb or prmtop file.
func (O *OmmSystem) loadTopology(name string) error {
	var top *chem.Topology
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdb":
		t, coords, err := chem.PDBFileRead(name)
		if err != nil {
			return err
		}
		top = t
		if len(coords) > 0 {
			O.positions = coords[0]
		}
	case ".prmtop", ".parm7", ".top":
		P, err := amber.ReadPrmtopFile(name)
		if err != nil {
			return err
		}
		if top, err = P.Topology(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported topology file %s", name)
	}
	if n := O.System.NumParticles(); n != 0 && top.Len() != n {
		return fmt.Errorf("topology %s has %d atoms, the system %d particles", name, top.Len(), n)
	}
	O.topology = top
	return nil
}
