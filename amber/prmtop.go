package amber

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	chem "github.com/rbdavid/exafold"
)

// Amber stores charges multiplied by this factor, so they come out in kcal/mol
// when used with distances in Angstrom.
const chargeFactor = 18.2223

// Indexes in the POINTERS block
const (
	NATOM  = 0
	NTYPES = 1
	NRES   = 11
	IFBOX  = 27
)

// Prmtop holds the blocks of an Amber parameter/topology file. Each block
// is kept as the slice of its (trimmed) fixed-width fields.
type Prmtop struct {
	Version string
	Blocks  map[string][]string
	order   []string
}

var formatRegexp = regexp.MustCompile(`^\(?\s*(\d+)\s*([aAiIeEfF])\s*(\d+)(?:\.\d+)?\s*\)?$`)

// parses a fortran format like (20a4), (10I8) or (5E16.8)
// returns the width of each field.
func fieldWidth(format string) (int, error) {
	m := formatRegexp.FindStringSubmatch(strings.TrimSpace(format))
	if m == nil {
		return -1, fmt.Errorf("unsupported prmtop format: %s", format)
	}
	return strconv.Atoi(m[3])
}

// ReadPrmtopFile opens and reads the prmtop file with the given name.
func ReadPrmtopFile(name string) (*Prmtop, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	P, err := ReadPrmtop(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return P, nil
}

// ReadPrmtop reads a prmtop file from r.
func ReadPrmtop(r io.Reader) (*Prmtop, error) {
	br := bufio.NewReader(r)
	P := &Prmtop{Blocks: make(map[string][]string)}
	var flag string
	width := -1
	var s string
	var err error
	for s, err = br.ReadString('\n'); err == nil || (errors.Is(err, io.EOF) && s != ""); s, err = br.ReadString('\n') {
		s = strings.TrimRight(s, "\r\n")
		switch {
		case strings.HasPrefix(s, "%VERSION"):
			P.Version = strings.TrimSpace(strings.TrimPrefix(s, "%VERSION"))
		case strings.HasPrefix(s, "%FLAG"):
			flag = strings.TrimSpace(strings.TrimPrefix(s, "%FLAG"))
			width = -1
			P.Blocks[flag] = make([]string, 0)
			P.order = append(P.order, flag)
		case strings.HasPrefix(s, "%FORMAT"):
			width, err = fieldWidth(strings.TrimPrefix(s, "%FORMAT"))
			if err != nil {
				return nil, err
			}
		case strings.HasPrefix(s, "%COMMENT"):
		default:
			if flag == "" || width <= 0 {
				return nil, fmt.Errorf("data line before any %%FLAG/%%FORMAT: %q", s)
			}
			P.Blocks[flag] = append(P.Blocks[flag], splitFixed(s, width)...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if _, ok := P.Blocks["POINTERS"]; !ok {
		return nil, fmt.Errorf("no POINTERS block in prmtop")
	}
	return P, nil
}

// splits s in fields of width w. Empty fields (i.e. a trailing, partially filled line)
// are discarded, but not blank names in the middle of a line.
func splitFixed(s string, w int) []string {
	ret := make([]string, 0, len(s)/w+1)
	for i := 0; i < len(s); i += w {
		end := i + w
		if end > len(s) {
			end = len(s)
		}
		ret = append(ret, strings.TrimSpace(s[i:end]))
	}
	for len(ret) > 0 && ret[len(ret)-1] == "" {
		ret = ret[:len(ret)-1]
	}
	return ret
}

// Flags returns the names of the blocks, in the order they appear in the file.
func (P *Prmtop) Flags() []string {
	return append([]string(nil), P.order...)
}

// Strings returns the fields of the block flag. Returns error if the block is not present.
func (P *Prmtop) Strings(flag string) ([]string, error) {
	b, ok := P.Blocks[flag]
	if !ok {
		return nil, fmt.Errorf("block %s not in prmtop", flag)
	}
	return b, nil
}

// Ints returns the block flag parsed as integers.
func (P *Prmtop) Ints(flag string) ([]int, error) {
	b, err := P.Strings(flag)
	if err != nil {
		return nil, err
	}
	ret := make([]int, len(b))
	for i, v := range b {
		ret[i], err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("block %s, field %d: %w", flag, i, err)
		}
	}
	return ret, nil
}

// Floats returns the block flag parsed as float64.
func (P *Prmtop) Floats(flag string) ([]float64, error) {
	b, err := P.Strings(flag)
	if err != nil {
		return nil, err
	}
	ret := make([]float64, len(b))
	for i, v := range b {
		ret[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("block %s, field %d: %w", flag, i, err)
		}
	}
	return ret, nil
}

// Pointer returns the ith element of the POINTERS block (see the NATOM, NRES... constants)
func (P *Prmtop) Pointer(i int) (int, error) {
	p, err := P.Ints("POINTERS")
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(p) {
		return 0, fmt.Errorf("POINTERS has %d elements, requested %d", len(p), i)
	}
	return p[i], nil
}

// Topology builds a chem.Topology from the prmtop. Residues are numbered
// sequentially from 1, in the order they appear in the file.
// Charges are converted to elementary charges.
func (P *Prmtop) Topology() (*chem.Topology, error) {
	natoms, err := P.Pointer(NATOM)
	if err != nil {
		return nil, err
	}
	names, err := P.Strings("ATOM_NAME")
	if err != nil {
		return nil, err
	}
	labels, err := P.Strings("RESIDUE_LABEL")
	if err != nil {
		return nil, err
	}
	resptr, err := P.Ints("RESIDUE_POINTER")
	if err != nil {
		return nil, err
	}
	if len(names) != natoms {
		return nil, fmt.Errorf("prmtop declares %d atoms but ATOM_NAME has %d", natoms, len(names))
	}
	if len(labels) != len(resptr) {
		return nil, fmt.Errorf("RESIDUE_LABEL has %d entries and RESIDUE_POINTER %d", len(labels), len(resptr))
	}
	//optional blocks
	masses, _ := P.Floats("MASS")
	charges, _ := P.Floats("CHARGE")
	atnum, _ := P.Ints("ATOMIC_NUMBER")

	resmap, err := residueMap(resptr, natoms)
	if err != nil {
		return nil, err
	}
	atoms := make([]*chem.Atom, natoms)
	for i := range atoms {
		at := &chem.Atom{ID: i + 1, Name: names[i], MolID: resmap[i] + 1, MolName: labels[resmap[i]]}
		if len(masses) == natoms {
			at.Mass = masses[i]
		}
		if len(charges) == natoms {
			at.Charge = charges[i] / chargeFactor
		}
		if len(atnum) == natoms {
			at.Symbol = atomicSymbols[atnum[i]]
		}
		atoms[i] = at
	}
	top, err := chem.NewTopology(atoms, 0, 1)
	if err != nil {
		return nil, err
	}
	top.FillMissingMasses()
	return top, nil
}

// Converts the RESIDUE_POINTER block into a slice, indexed by atom, that
// provides the residue number (starting at 0) for each atom.
func residueMap(resptr []int, natoms int) ([]int, error) {
	ret := make([]int, natoms)
	for r := range resptr {
		start := resptr[r] - 1 // Fortran starts counting at 1
		end := natoms
		if r+1 < len(resptr) {
			end = resptr[r+1] - 1
		}
		if start < 0 || end > natoms || start > end {
			return nil, fmt.Errorf("invalid RESIDUE_POINTER entry %d: %d", r, resptr[r])
		}
		for i := start; i < end; i++ {
			ret[i] = r
		}
	}
	return ret, nil
}

var atomicSymbols = map[int]string{
	1: "H", 6: "C", 7: "N", 8: "O", 9: "F", 11: "Na", 12: "Mg", 15: "P", 16: "S",
	17: "Cl", 19: "K", 20: "Ca", 25: "Mn", 26: "Fe", 27: "Co", 29: "Cu", 30: "Zn",
	34: "Se", 35: "Br", 53: "I",
}

const (
	angstrom2nm = 0.1
	kcal2kj     = 4.184
)

// NonbondedParameters returns, for each atom, the charge (e) and the Lennard-Jones
// sigma (nm) and epsilon (kJ/mol), obtained from the A and B coefficients of the
// atom's type. Atoms whose type has no Lennard-Jones interaction get zero sigma and epsilon.
func (P *Prmtop) NonbondedParameters() (charges, sigmas, epsilons []float64, err error) {
	natoms, err := P.Pointer(NATOM)
	if err != nil {
		return nil, nil, nil, err
	}
	ntypes, err := P.Pointer(NTYPES)
	if err != nil {
		return nil, nil, nil, err
	}
	charges, err = P.Floats("CHARGE")
	if err != nil {
		return nil, nil, nil, err
	}
	types, err := P.Ints("ATOM_TYPE_INDEX")
	if err != nil {
		return nil, nil, nil, err
	}
	nbindex, err := P.Ints("NONBONDED_PARM_INDEX")
	if err != nil {
		return nil, nil, nil, err
	}
	acoef, err := P.Floats("LENNARD_JONES_ACOEF")
	if err != nil {
		return nil, nil, nil, err
	}
	bcoef, err := P.Floats("LENNARD_JONES_BCOEF")
	if err != nil {
		return nil, nil, nil, err
	}
	if len(charges) != natoms || len(types) != natoms || len(nbindex) != ntypes*ntypes {
		return nil, nil, nil, fmt.Errorf("inconsistent nonbonded blocks in prmtop")
	}
	sigmas = make([]float64, natoms)
	epsilons = make([]float64, natoms)
	for i := range charges {
		charges[i] /= chargeFactor
		t := types[i] - 1
		if t < 0 || t >= ntypes {
			return nil, nil, nil, fmt.Errorf("atom %d has invalid type %d", i, types[i])
		}
		idx := nbindex[ntypes*t+t] - 1
		if idx < 0 {
			continue //10-12 term, not supported
		}
		if idx >= len(acoef) || idx >= len(bcoef) {
			return nil, nil, nil, fmt.Errorf("NONBONDED_PARM_INDEX out of range for atom %d", i)
		}
		a, b := acoef[idx], bcoef[idx]
		if a <= 0 || b <= 0 {
			continue
		}
		sigmas[i] = math.Pow(a/b, 1.0/6.0) * angstrom2nm
		epsilons[i] = b * b / (4 * a) * kcal2kj
	}
	return charges, sigmas, epsilons, nil
}
