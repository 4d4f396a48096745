package restraints

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDistanceLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *Interaction
	}{
		{
			name: "columns",
			line: " 5   ALA   CA    12    GLY   N    2.0  6.0",
			want: &Interaction{Atoms: []ResAtom{{5, "CA"}, {12, "N"}}, Params: []float64{2.0}},
		},
		{
			name: "tabs",
			line: "7\tLYS\tNZ\t30\tGLU\tOE1\t2.5\t4",
			want: &Interaction{Atoms: []ResAtom{{7, "NZ"}, {30, "OE1"}}, Params: []float64{2.5}},
		},
		{
			name: "assign",
			line: "assign (resid 3 and name CB) (resid 40 and name CB) 5.5 2.0 8.0",
			want: &Interaction{Atoms: []ResAtom{{3, "CB"}, {40, "CB"}}, Params: []float64{5.5}},
		},
		{
			name: "assign without spaces between groups",
			line: "ASSIGN (resid 3 and name CA)(resid 4 and name CA) 3.8 3.0 4.5",
			want: &Interaction{Atoms: []ResAtom{{3, "CA"}, {4, "CA"}}, Params: []float64{3.8}},
		},
		{name: "blank", line: ""},
		{name: "header", line: "# R1  R1N  A1   R2   R2N  A2   L    U"},
		{name: "missing column", line: " 5   ALA   CA    12    GLY   N    2.0"},
		{name: "extra column", line: " 5   ALA   CA    12    GLY   N    2.0  6.0 1.0"},
		{name: "non numeric residue", line: " x   ALA   CA    12    GLY   N    2.0  6.0"},
		{name: "non numeric bound", line: " 5   ALA   CA    12    GLY   N    far  6.0"},
		{name: "assign missing bound", line: "assign (resid 3 and name CB) (resid 40 and name CB) 5.5 2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDistanceRestraints(strings.NewReader(tt.line))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, *tt.want, got[0])
		})
	}
}

func TestReadRestraintsFile(t *testing.T) {
	got, err := ReadRestraints("../test/distance_restraints.txt", Distance)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, Interaction{Atoms: []ResAtom{{5, "CA"}, {12, "N"}}, Params: []float64{2.0}}, got[0])
	assert.Equal(t, []ResAtom{{5, "CB"}, {12, "CA"}}, got[1].Atoms)
	assert.Equal(t, []ResAtom{{5, "CA"}, {99, "NE1"}}, got[2].Atoms)
	assert.Equal(t, Interaction{Atoms: []ResAtom{{13, "C1"}, {12, "O"}}, Params: []float64{3.0}}, got[3])
}

func TestReadRestraintsFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/contacts.txt", []byte(
		"1 MET N 10 ALA O 3.0 5.0\n"+
			"not a restraint\n"+
			"2 GLY CA 11 SER OG 4.0 6.0\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/data/dir", 0o755))

	got, err := ReadRestraintsFs(fs, "/data/contacts.txt", Distance)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Atoms[0].Residue)
	assert.Equal(t, "OG", got[1].Atoms[1].Name)

	_, err = ReadRestraintsFs(fs, "/data/missing.txt", Distance)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadRestraintsFs(fs, "/data/dir", Distance)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestReadRestraintsKinds(t *testing.T) {
	//the kind is checked before looking for the file, so none of these files exist.
	tests := []struct {
		kind    string
		wantErr error
	}{
		{kind: Torsion, wantErr: ErrNotImplemented},
		{kind: "angle", wantErr: ErrUnsupportedRestraintType},
		{kind: "", wantErr: ErrUnsupportedRestraintType},
		{kind: "Distance", wantErr: ErrUnsupportedRestraintType},
		{kind: Distance, wantErr: ErrFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			_, err := ReadRestraints("/nonexistent/restraints.txt", tt.kind)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr != ErrFileNotFound {
				assert.NotErrorIs(t, err, ErrFileNotFound)
			}
		})
	}
}
