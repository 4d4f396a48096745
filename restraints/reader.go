package restraints

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Kinds of restraint files that ReadRestraints knows about.
const (
	Distance = "distance"
	Torsion  = "torsion"
)

// ReadRestraints reads the restraints of the given kind from the named file
// in the OS filesystem. See ReadRestraintsFs.
func ReadRestraints(filename, kind string) ([]Interaction, error) {
	return ReadRestraintsFs(afero.NewOsFs(), filename, kind)
}

// ReadRestraintsFs reads the restraints of the given kind from the named file in fs,
// in the order they appear in the file.
// The kind is checked before the file is touched: unknown kinds give ErrUnsupportedRestraintType
// and torsion gives ErrNotImplemented. A missing file gives ErrFileNotFound.
// Lines that are not restraints (comments, headers, blank lines, lines with
// non-numeric residues or bounds) are skipped.
func ReadRestraintsFs(fs afero.Fs, filename, kind string) ([]Interaction, error) {
	switch kind {
	case Distance:
	case Torsion:
		return nil, fmt.Errorf("reading %s restraints: %w", kind, ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRestraintType, kind)
	}
	info, err := fs.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, filename, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, filename)
	}
	f, err := fs.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, filename, err)
	}
	defer f.Close()
	ret, err := ParseDistanceRestraints(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return ret, nil
}

// ParseDistanceRestraints reads distance restraints from r. Two line formats are understood.
// Columns:
//
//	R1 RESNAME1 ATOM1 R2 RESNAME2 ATOM2 LOWER UPPER
//
// where the restraint distance is LOWER, and XPLOR-like assign statements:
//
//	assign (resid R1 and name ATOM1) (resid R2 and name ATOM2) DIST LOWER UPPER
//
// where it is DIST. Each restraint is returned as an Interaction with two atoms
// and the distance, in A, as only parameter.
func ParseDistanceRestraints(r io.Reader) ([]Interaction, error) {
	ret := make([]Interaction, 0, 10)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		in, ok := parseDistanceColumns(line)
		if !ok {
			in, ok = parseDistanceAssign(line)
		}
		if ok {
			ret = append(ret, in)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func parseDistanceColumns(line string) (Interaction, bool) {
	f := strings.Fields(line)
	if len(f) != 8 {
		return Interaction{}, false
	}
	r1, err1 := strconv.Atoi(f[0])
	r2, err2 := strconv.Atoi(f[3])
	if err1 != nil || err2 != nil {
		return Interaction{}, false
	}
	bounds, ok := parseFloats(f[6], f[7])
	if !ok {
		return Interaction{}, false
	}
	return Interaction{
		Atoms:  []ResAtom{{Residue: r1, Name: f[2]}, {Residue: r2, Name: f[5]}},
		Params: []float64{bounds[0]},
	}, true
}

var assignRegexp = regexp.MustCompile(`(?i)^\s*assign\s+\(\s*resid\s+(-?\d+)\s+and\s+name\s+([^\s()]+)\s*\)\s*\(\s*resid\s+(-?\d+)\s+and\s+name\s+([^\s()]+)\s*\)\s+(\S+)\s+(\S+)\s+(\S+)\s*$`)

func parseDistanceAssign(line string) (Interaction, bool) {
	m := assignRegexp.FindStringSubmatch(line)
	if m == nil {
		return Interaction{}, false
	}
	r1, err1 := strconv.Atoi(m[1])
	r2, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil {
		return Interaction{}, false
	}
	vals, ok := parseFloats(m[5], m[6], m[7])
	if !ok {
		return Interaction{}, false
	}
	return Interaction{
		Atoms:  []ResAtom{{Residue: r1, Name: m[2]}, {Residue: r2, Name: m[4]}},
		Params: []float64{vals[0]},
	}, true
}

func parseFloats(s ...string) ([]float64, bool) {
	ret := make([]float64, len(s))
	for i, v := range s {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		ret[i] = f
	}
	return ret, true
}
