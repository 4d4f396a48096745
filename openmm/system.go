package openmm

import (
	"fmt"
	"slices"
)

// Constraint fixes the distance (nm) between two particles.
type Constraint struct {
	P1, P2   int
	Distance float64
}

// System is a set of particles, given by their masses, plus the forces acting on them.
// It is not safe for concurrent use.
type System struct {
	masses      []float64
	constraints []Constraint
	forces      []Force
	box         [3][3]float64
}

// NewSystem returns an empty system with the engine's default periodic box,
// a cube of 2 nm.
func NewSystem() *System {
	S := new(System)
	S.box = [3][3]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	return S
}

// AddParticle adds a particle with the given mass (Da) and returns its index.
func (S *System) AddParticle(mass float64) int {
	S.masses = append(S.masses, mass)
	return len(S.masses) - 1
}

func (S *System) NumParticles() int {
	return len(S.masses)
}

// ParticleMass returns the mass of the ith particle. It panics if i is out of range.
func (S *System) ParticleMass(i int) float64 {
	return S.masses[i]
}

// AddConstraint adds a distance constraint and returns its index.
func (S *System) AddConstraint(p1, p2 int, distance float64) int {
	S.constraints = append(S.constraints, Constraint{P1: p1, P2: p2, Distance: distance})
	return len(S.constraints) - 1
}

func (S *System) NumConstraints() int {
	return len(S.constraints)
}

// AddForce adds f to the system and returns its index. The system takes ownership of f.
// The same force can be added more than once.
func (S *System) AddForce(f Force) int {
	S.forces = append(S.forces, f)
	return len(S.forces) - 1
}

// RemoveForce removes the ith force. The following forces are shifted down by one.
func (S *System) RemoveForce(i int) error {
	if i < 0 || i >= len(S.forces) {
		return fmt.Errorf("force index %d out of range (%d forces)", i, len(S.forces))
	}
	S.forces = slices.Delete(S.forces, i, i+1)
	return nil
}

// Force returns the ith force.
func (S *System) Force(i int) (Force, error) {
	if i < 0 || i >= len(S.forces) {
		return nil, fmt.Errorf("force index %d out of range (%d forces)", i, len(S.forces))
	}
	return S.forces[i], nil
}

// Forces returns the forces in the system, in order. The slice is a copy, but not the forces.
func (S *System) Forces() []Force {
	return slices.Clone(S.forces)
}

func (S *System) NumForces() int {
	return len(S.forces)
}

// DefaultPeriodicBoxVectors returns the box vectors, in nm.
func (S *System) DefaultPeriodicBoxVectors() (a, b, c [3]float64) {
	return S.box[0], S.box[1], S.box[2]
}

// SetDefaultPeriodicBoxVectors sets the box vectors, in nm.
func (S *System) SetDefaultPeriodicBoxVectors(a, b, c [3]float64) {
	S.box = [3][3]float64{a, b, c}
}
