/*
 * chem.go, part of exafold.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chem

import (
	"fmt"
	"strings"
)

// Atom contains the atoms read except for the coordinates, which will be in a matrix.
type Atom struct {
	Name      string
	ID        int
	Tag       int //Just added this for something that someone might want to keep that is not a float.
	MolName   string
	MolName1  byte //the one letter name for residues and nucleotids
	MolID     int
	Chain     string
	Mass      float64
	Occupancy float64
	Bfactor   float64
	Charge    float64
	Symbol    string
	Het       bool // is hetatm in the pdb file?
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

/*****Topology type***/

// Topology contains information about a molecule which is not expected to change in time (i.e. everything except for coordinates)
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

// NewTopology returns a topology with the given atoms, charge and multiplicity.
// It returns error if ats is nil. It doesnt check for the consistency of the
// charge or multiplicity.
func NewTopology(ats []*Atom, charge, multi int) (*Topology, error) {
	if ats == nil {
		return nil, fmt.Errorf("Supplied a nil atom slice")
	}
	top := new(Topology)
	top.Atoms = ats
	top.charge = charge
	top.multi = multi
	return top, nil
}

/*Topology methods*/

// Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

// Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

// SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

// SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

// CopyAtoms returns a deep copy of the topology.
func (T *Topology) CopyAtoms() *Topology {
	top := new(Topology)
	top.Atoms = make([]*Atom, T.Len())
	for key, val := range T.Atoms {
		top.Atoms[key] = val.Copy()
	}
	top.charge = T.charge
	top.multi = T.multi
	return top
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// AppendAtom appends an atom at the end of the topology
func (T *Topology) AppendAtom(at *Atom) {
	T.Atoms = append(T.Atoms, at)
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	//if T.Atoms is nil, return len(T.Atoms) will panic, so I will let that happen for now.
	//	if T.Atoms == nil {
	//		panic(ErrNilAtoms)
	//	}
	return len(T.Atoms)
}

// Masses returns a slice of float64 with the masses of the atoms in the topology, or an error
// if any atom has a mass of zero.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i := 0; i < T.Len(); i++ {
		thisatom := T.Atom(i)
		if thisatom.Mass == 0 {
			return nil, fmt.Errorf("Not all the masses have been obtained: %d %v", i, thisatom)
		}
		mass[i] = thisatom.Mass
	}
	return mass, nil
}

// NResidues returns the number of residues in the topology. A new residue
// starts every time the residue number or the chain changes between consecutive atoms.
func (T *Topology) NResidues() int {
	return len(residueStarts(T))
}

// FillMissingMasses assigns masses from the element symbol (guessed from the atom name
// if needed) to every atom with zero mass.
func (T *Topology) FillMissingMasses() {
	for _, at := range T.Atoms {
		if at.Mass != 0 {
			continue
		}
		if at.Symbol == "" {
			at.Symbol, _ = symbolFromName(strings.ToUpper(at.Name))
		}
		at.Mass = symbolMass[at.Symbol]
	}
}

// residueStarts returns the index of the first atom of each residue in T.
func residueStarts(T Atomer) []int {
	ret := make([]int, 0, T.Len()/8+1)
	for i := 0; i < T.Len(); i++ {
		if i == 0 {
			ret = append(ret, 0)
			continue
		}
		prev := T.Atom(i - 1)
		at := T.Atom(i)
		if prev.MolID != at.MolID || prev.Chain != at.Chain {
			ret = append(ret, i)
		}
	}
	return ret
}
