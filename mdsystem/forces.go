package mdsystem

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbdavid/exafold/openmm"
	"github.com/rbdavid/exafold/restraints"
)

// RepulsiveEnergy is the energy of the soft repulsive force: a quartic wall
// that vanishes at 0.8 times the Lennard-Jones minimum.
const RepulsiveEnergy = "w_a*((0.8*sigma*(2)^(1/6))^2-r^2)^2; sigma=0.5*(sigma1+sigma2)"

// GetForce returns the first force of the given class in the system, or nil.
func (O *OmmSystem) GetForce(class string) openmm.Force {
	i := O.GetForceID(class)
	if i < 0 {
		return nil
	}
	f, _ := O.System.Force(i)
	return f
}

// GetForceID returns the index of the first force of the given class in the system,
// or -1 if there is none.
func (O *OmmSystem) GetForceID(class string) int {
	for i, f := range O.System.Forces() {
		if f.Class() == class {
			return i
		}
	}
	return -1
}

// removeForce takes the first force of the given class out of the system and keeps it,
// so it can be added back.
func (O *OmmSystem) removeForce(class string) error {
	i := O.GetForceID(class)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoForce, class)
	}
	f, err := O.System.Force(i)
	if err != nil {
		return err
	}
	if err := O.System.RemoveForce(i); err != nil {
		return err
	}
	O.removed = f
	return nil
}

// RemoveNonbondedForces takes the NonbondedForce out of the system.
func (O *OmmSystem) RemoveNonbondedForces() error {
	return O.removeForce("NonbondedForce")
}

// RemoveRepulsiveForce takes the CustomNonbondedForce out of the system.
func (O *OmmSystem) RemoveRepulsiveForce() error {
	return O.removeForce("CustomNonbondedForce")
}

// ApplyNonbondedForces adds the last removed nonbonded force back to the system,
// and returns its new index.
func (O *OmmSystem) ApplyNonbondedForces() (int, error) {
	if O.removed == nil {
		return -1, fmt.Errorf("%w: no nonbonded force was removed", ErrNoForce)
	}
	i := O.System.AddForce(O.removed)
	slog.Info("nonbonded forces added back into the system", "class", O.removed.Class(), "index", i)
	return i, nil
}

// ApplyRepulsiveForce adds a CustomNonbondedForce with RepulsiveEnergy, scaled by weight,
// to the system. Per-particle sigmas and the cutoff are taken from the NonbondedForce
// removed with RemoveNonbondedForces.
func (O *OmmSystem) ApplyRepulsiveForce(weight float64) error {
	nb, ok := O.removed.(*openmm.NonbondedForce)
	if !ok {
		return errors.New("the nonbonded force needs to be removed before applying the repulsive force")
	}
	rep, err := openmm.NewCustomNonbondedForce(RepulsiveEnergy)
	if err != nil {
		return err
	}
	calls := []restraints.Call{
		{Method: "setNonbondedMethod", Args: []any{openmm.CutoffPeriodic}},
		{Method: "addPerParticleParameter", Args: []any{"sigma"}},
		{Method: "setCutoffDistance", Args: []any{nb.CutoffDistance()}},
	}
	for i := 0; i < nb.Len(); i++ {
		calls = append(calls, restraints.Call{Method: "addParticle", Args: []any{[]float64{nb.Particle(i).Sigma}}})
	}
	calls = append(calls, restraints.Call{Method: "addGlobalParameter", Args: []any{"w_a", weight}})
	for _, c := range calls {
		if err := rep.Call(c.Method, c.Args...); err != nil {
			return err
		}
	}
	O.System.AddForce(rep)
	return nil
}
