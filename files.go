/*
 * files.go, part of exafold.
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rbdavid/exafold/v3"
)

//PDB read family

// Parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates, which are returned
// separately as an array of 3 float64.
func readFullPDBLine(line string, contlines int) (*Atom, []float64, error) {
	if len(line) < 54 {
		return nil, nil, fmt.Errorf("PDB line %d too short: %q", contlines, line)
	}
	err := make([]error, 4) //accumulate errors to check at the end of the readed line.
	coords := make([]float64, 3)
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	//PDB says that pos. 17 is for other thing but I see that is
	//used for residue name in many cases
	atom.MolName = strings.TrimSpace(line[17:20])
	atom.MolName1 = three2OneLetter[atom.MolName]
	atom.Chain = strings.TrimSpace(line[21:22])
	atom.MolID, err[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	coords, err[2] = parseCoordFields(line, coords)
	//occupancy, b-factor and element are optional. If something is missing we
	//just ommit it.
	if len(line) >= 60 {
		atom.Occupancy, _ = strconv.ParseFloat(strings.TrimSpace(line[54:60]), 64)
	}
	if len(line) >= 66 {
		atom.Bfactor, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	}
	if len(line) >= 78 {
		atom.Symbol = strings.TrimSpace(line[76:78])
		if len(atom.Symbol) == 2 {
			atom.Symbol = atom.Symbol[:1] + strings.ToLower(atom.Symbol[1:])
		}
	}
	//This part tries to guess the symbol from the atom name, if it has not been read
	//No error checking here, just fills symbol with the empty string the function returns
	if len(atom.Symbol) == 0 {
		atom.Symbol, _ = symbolFromName(atom.Name)
	}
	for i := range err {
		if err[i] != nil {
			return nil, nil, fmt.Errorf("PDB line %d: %w", contlines, err[i])
		}
	}
	if atom.Symbol != "" {
		atom.Mass = symbolMass[atom.Symbol] //Not error checking
	}
	return atom, coords, nil
}

func parseCoordFields(line string, coords []float64) ([]float64, error) {
	var err error
	for i, p := range [3][2]int{{30, 38}, {38, 46}, {46, 54}} {
		coords[i], err = strconv.ParseFloat(strings.TrimSpace(line[p[0]:p[1]]), 64)
		if err != nil {
			return nil, err
		}
	}
	return coords, nil
}

// PDBFileRead reads the PDB file pdbname. See PDBRead.
func PDBFileRead(pdbname string) (*Topology, []*v3.Matrix, error) {
	pdbfile, err := os.Open(pdbname)
	if err != nil {
		return nil, nil, err
	}
	defer pdbfile.Close()
	return PDBRead(pdbfile)
}

// PDBRead reads the atomic entries of a PDB file. It returns the topology,
// taken from the first model, and one set of coordinates per model.
func PDBRead(r io.Reader) (*Topology, []*v3.Matrix, error) {
	pdb := bufio.NewReader(r)
	molecule := make([]*Atom, 0, 100)
	coords := [][]float64{make([]float64, 0, 300)}
	firstModel := true //are we reading the first model? if not we only save coordinates
	contlines := 0     //count the lines read to better report errors
	var line string
	var err error
	for line, err = pdb.ReadString('\n'); err == nil || (errors.Is(err, io.EOF) && line != ""); line, err = pdb.ReadString('\n') {
		contlines++
		if strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM") {
			at, c, err2 := readFullPDBLine(strings.TrimRight(line, "\r\n"), contlines)
			if err2 != nil {
				return nil, nil, err2
			}
			//atom data other than coords is the same in all models so just read for the first.
			if firstModel {
				molecule = append(molecule, at)
			}
			coords[len(coords)-1] = append(coords[len(coords)-1], c...)
		} else if strings.HasPrefix(line, "ENDMDL") && firstModel {
			firstModel = false
		} else if strings.HasPrefix(line, "MODEL") && !firstModel {
			coords = append(coords, make([]float64, 0, len(molecule)*3))
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if len(molecule) == 0 {
		return nil, nil, fmt.Errorf("No atoms found in PDB input")
	}
	frames := make([]*v3.Matrix, 0, len(coords))
	for i, c := range coords {
		if len(c) != 3*len(molecule) {
			return nil, nil, fmt.Errorf("Model %d has %d atoms, expected %d", i+1, len(c)/3, len(molecule))
		}
		m, err := v3.NewMatrix(c)
		if err != nil {
			return nil, nil, err
		}
		frames = append(frames, m)
	}
	top, err := NewTopology(molecule, 0, 1)
	return top, frames, err
}

//End PDB read family

// PDBFileWrite writes a PDB file with name pdbname for the topology mol, with coordinates coords.
func PDBFileWrite(pdbname string, mol Atomer, coords ...*v3.Matrix) error {
	out, err := os.Create(pdbname)
	if err != nil {
		return err
	}
	defer out.Close()
	return PDBWrite(out, mol, coords...)
}

// PDBWrite writes the topology mol, with each of the given coordinate sets as a model, in PDB format
// to out. If no coordinates are given, all atoms are placed at the origin.
func PDBWrite(out io.Writer, mol Atomer, coords ...*v3.Matrix) error {
	if mol == nil || mol.Len() == 0 {
		return fmt.Errorf("Can't write an empty topology")
	}
	if len(coords) == 0 {
		coords = []*v3.Matrix{v3.Zeros(mol.Len())}
	}
	for i, c := range coords {
		if c == nil || c.NVecs() != mol.Len() {
			return fmt.Errorf("Coordinate set %d doesn't match the %d atoms of the topology", i, mol.Len())
		}
	}
	w := bufio.NewWriter(out)
	fmt.Fprint(w, "REMARK     WRITTEN WITH EXAFOLD\n")
	for j, c := range coords {
		if len(coords) > 1 {
			fmt.Fprintf(w, "MODEL     %4d\n", j+1)
		}
		chainprev := mol.Atom(0).Chain //this is to know when the chain changes.
		for i := 0; i < mol.Len(); i++ {
			at := mol.Atom(i)
			if at.Chain != chainprev {
				fmt.Fprintln(w, "TER")
				chainprev = at.Chain
			}
			if err := writePDBLine(w, at, i, c.RawRowView(i)); err != nil {
				return err
			}
		}
		if len(coords) > 1 {
			fmt.Fprint(w, "ENDMDL\n")
		}
	}
	fmt.Fprint(w, "END\n")
	return w.Flush()
}

func writePDBLine(w io.Writer, at *Atom, i int, c []float64) error {
	first := "ATOM"
	if at.Het {
		first = "HETATM"
	}
	id := at.ID
	if id == 0 {
		id = i + 1
	}
	chain := at.Chain
	if chain == "" {
		chain = " "
	}
	var err error
	//4 chars for the atom name are used when hydrogens are included.
	if len(at.Name) < 4 {
		_, err = fmt.Fprintf(w, "%-6s%5d  %-3s %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n", first, id%100000, at.Name, at.MolName, chain,
			at.MolID%10000, c[0], c[1], c[2], at.Occupancy, at.Bfactor, at.Symbol)
	} else if len(at.Name) == 4 {
		_, err = fmt.Fprintf(w, "%-6s%5d %4s %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n", first, id%100000, at.Name, at.MolName, chain,
			at.MolID%10000, c[0], c[1], c[2], at.Occupancy, at.Bfactor, at.Symbol)
	} else {
		err = fmt.Errorf("Cant print PDB line for atom %d with name %s", i, at.Name)
	}
	return err
}
