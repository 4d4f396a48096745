package amber

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

const inpcrdWidth = 12

// ReadInpcrdFile opens and reads the inpcrd/restart file with the given name.
func ReadInpcrdFile(name string) (*v3.Matrix, []float64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	c, box, err := ReadInpcrd(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return c, box, nil
}

// ReadInpcrd reads an Amber ASCII coordinate (inpcrd or restart) file. It returns the
// coordinates, in A, and, if present, the box line (lengths and angles). Velocities, if present,
// are skipped.
func ReadInpcrd(r io.Reader) (*v3.Matrix, []float64, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() { //title
		return nil, nil, fmt.Errorf("empty inpcrd: %w", io.ErrUnexpectedEOF)
	}
	if !sc.Scan() {
		return nil, nil, fmt.Errorf("no atom count in inpcrd: %w", io.ErrUnexpectedEOF)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("no atom count in inpcrd")
	}
	natoms, err := strconv.Atoi(fields[0])
	if err != nil || natoms <= 0 {
		return nil, nil, fmt.Errorf("invalid atom count in inpcrd: %q", sc.Text())
	}
	values := make([]float64, 0, 3*natoms)
	rest := make([]float64, 0, 6)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		for i := 0; i < len(line); i += inpcrdWidth {
			end := i + inpcrdWidth
			if end > len(line) {
				end = len(line)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(line[i:end]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("inpcrd field %q: %w", line[i:end], err)
			}
			if len(values) < 3*natoms {
				values = append(values, v)
			} else {
				rest = append(rest, v)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if len(values) != 3*natoms {
		return nil, nil, fmt.Errorf("inpcrd declares %d atoms, found %d coordinates: %w", natoms, len(values), io.ErrUnexpectedEOF)
	}
	coords, err := v3.NewMatrix(values)
	if err != nil {
		return nil, nil, err
	}
	var box []float64
	switch len(rest) {
	case 0:
	case 6:
		box = rest
	case 3 * natoms:
		//velocities, no box
	case 3*natoms + 6:
		box = rest[3*natoms:]
	default:
		return nil, nil, errors.New("trailing data in inpcrd is neither velocities nor a box")
	}
	return coords, box, nil
}
