package restraints

import "fmt"

// ResAtom identifies an atom by its residue number (starting from 1, as in the
// structure files) and its name.
type ResAtom struct {
	Residue int
	Name    string
}

func (r ResAtom) String() string {
	return fmt.Sprintf("%d:%s", r.Residue, r.Name)
}

// Interaction is one restraint instance: the group of atoms it acts on, and
// its parameters, in the units of the restraint file.
type Interaction struct {
	Atoms  []ResAtom
	Params []float64
}
