package mdsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chem "github.com/rbdavid/exafold"
	"github.com/rbdavid/exafold/openmm"
	"github.com/rbdavid/exafold/restraints"
)

// newTestSystem returns a system with the topology in test/ala_gly.pdb:
// ALA 5 (N CA C O CB), GLY 12 (N CA C O) and LIG 13 (C1).
func newTestSystem(t *testing.T) *OmmSystem {
	t.Helper()
	top, coords, err := chem.PDBFileRead("../test/ala_gly.pdb")
	require.NoError(t, err)
	S := openmm.NewSystem()
	for _, at := range top.Atoms {
		S.AddParticle(at.Mass)
	}
	O := NewFromSystem(S, top)
	O.SetInitialPositions(coords[0])
	return O
}

func distanceDef(t *testing.T) *restraints.Definition {
	t.Helper()
	d, err := restraints.Builtin().Definition(restraints.Distance)
	require.NoError(t, err)
	return d
}

func interaction(r1 int, a1 string, r2 int, a2 string, params ...float64) restraints.Interaction {
	return restraints.Interaction{
		Atoms:  []restraints.ResAtom{{Residue: r1, Name: a1}, {Residue: r2, Name: a2}},
		Params: params,
	}
}

func bondForce(t *testing.T, O *OmmSystem, restraintType string) *openmm.CustomBondedForce {
	t.Helper()
	r, ok := O.Restraint(restraintType)
	require.True(t, ok)
	f, ok := r.Force.(*openmm.CustomBondedForce)
	require.True(t, ok)
	return f
}

func TestInitializeAndApply(t *testing.T) {
	O := newTestSystem(t)
	before := O.System.NumForces()
	def := distanceDef(t)
	require.NoError(t, O.InitializeRestraintForce(def,
		interaction(5, "CA", 12, "N", 2.0),
		interaction(5, "cb", 12, "ca", 3.5),
	))
	require.NoError(t, O.ApplyRestraintForce(def.RestraintType))

	require.Equal(t, before+1, O.System.NumForces())
	f, err := O.System.Force(before)
	require.NoError(t, err)
	assert.Equal(t, "CustomBondForce", f.Class())
	assert.Equal(t, []string{"CustomBondForce"}, O.Restraints())

	F := bondForce(t, O, "CustomBondForce")
	require.Equal(t, 2, F.Len())
	assert.Equal(t, []int{1, 5}, F.Term(0).Particles)
	assert.InDeltaSlice(t, []float64{0.2}, F.Term(0).Params, 1e-12)
	assert.Equal(t, []int{4, 6}, F.Term(1).Particles)
	assert.Equal(t, []string{"r0"}, F.PerTermParameters())

	//no deduplication
	require.NoError(t, O.ApplyRestraintForce(def.RestraintType))
	assert.Equal(t, before+2, O.System.NumForces())
}

func TestUnresolvedInteractions(t *testing.T) {
	O := newTestSystem(t)
	require.NoError(t, O.InitializeRestraintForce(distanceDef(t)))
	err := O.AddRestraintInteractions("CustomBondForce", []restraints.Interaction{
		interaction(99, "CA", 12, "N", 2.0),
		interaction(5, "CA", 12, "XX", 2.0),
		interaction(0, "CA", 5, "CA", 2.0),
	})
	require.NoError(t, err)
	assert.Zero(t, bondForce(t, O, "CustomBondForce").Len())

	//the unresolved ones are skipped, the rest are kept in order
	err = O.AddRestraintInteractions("CustomBondForce", []restraints.Interaction{
		interaction(13, "C1", 12, "O", 3.0),
		interaction(99, "CA", 12, "N", 2.0),
		interaction(5, "N", 12, "CA", 4.0),
	})
	require.NoError(t, err)
	F := bondForce(t, O, "CustomBondForce")
	require.Equal(t, 2, F.Len())
	assert.Equal(t, []int{9, 8}, F.Term(0).Particles)
	assert.Equal(t, []int{0, 6}, F.Term(1).Particles, "atom index 0 is a valid atom")
}

func TestAmbiguousAtoms(t *testing.T) {
	ats := []*chem.Atom{
		{Name: "CA", MolID: 1, MolName: "ALA"},
		{Name: "CA", MolID: 1, MolName: "ALA"},
		{Name: "CA", MolID: 2, MolName: "GLY"},
	}
	top, err := chem.NewTopology(ats, 0, 1)
	require.NoError(t, err)
	O := NewFromSystem(openmm.NewSystem(), top)
	idx, err := O.resolveAtom(1, "CA")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
	idx, err = O.resolveAtom(2, "ca")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	require.NoError(t, O.InitializeRestraintForce(distanceDef(t), interaction(1, "CA", 2, "CA", 3)))
	assert.Zero(t, bondForce(t, O, "CustomBondForce").Len())
}

func TestReinitializeReplaces(t *testing.T) {
	O := newTestSystem(t)
	require.NoError(t, O.InitializeRestraintForce(distanceDef(t), interaction(5, "CA", 12, "N", 2.0)))
	first := bondForce(t, O, "CustomBondForce")

	require.NoError(t, O.InitializeRestraintForce(distanceDef(t)))
	second := bondForce(t, O, "CustomBondForce")
	assert.NotSame(t, first, second)
	assert.Len(t, O.Restraints(), 1)

	require.NoError(t, O.AddRestraintInteractions("CustomBondForce", []restraints.Interaction{interaction(5, "CB", 12, "CA", 3.5)}))
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len())
	assert.Equal(t, []int{4, 6}, second.Term(0).Particles)
}

func TestInsertRestraintForce(t *testing.T) {
	O := newTestSystem(t)
	require.NoError(t, O.InsertRestraintForce(distanceDef(t), interaction(5, "CA", 12, "N", 2.0)))
	first := bondForce(t, O, "CustomBondForce")
	assert.Equal(t, 1, first.Len())

	err := O.InsertRestraintForce(distanceDef(t), interaction(5, "CB", 12, "CA", 3.5))
	assert.ErrorIs(t, err, ErrRestraintExists)
	assert.Same(t, first, bondForce(t, O, "CustomBondForce"), "the registered force is kept")
	assert.Equal(t, 1, first.Len())
}

func TestUnitScaling(t *testing.T) {
	O := newTestSystem(t)
	def := distanceDef(t)
	def.Interaction.Units = []float64{10.0}
	require.NoError(t, O.InitializeRestraintForce(def, interaction(5, "CA", 12, "N", 3.0)))
	assert.Equal(t, []float64{30.0}, bondForce(t, O, "CustomBondForce").Term(0).Params)

	resolved, err := O.resolveInteractions(&RegisteredRestraint{Arity: 2, Units: []float64{10}}, []restraints.Interaction{interaction(5, "CA", 12, "N", 3.0)})
	require.NoError(t, err)
	assert.Equal(t, []ResolvedInteraction{{Atoms: []int{1, 5}, Params: []float64{30}}}, resolved)
}

func TestAddRestraintInteractionsErrors(t *testing.T) {
	O := newTestSystem(t)
	require.NoError(t, O.InitializeRestraintForce(distanceDef(t)))
	tests := []struct {
		name         string
		typ          string
		interactions []restraints.Interaction
		wantErr      error
	}{
		{name: "unknown type", typ: "CustomAngleForce", interactions: []restraints.Interaction{}, wantErr: ErrUnknownRestraintType},
		{name: "nil list", typ: "CustomBondForce", wantErr: ErrInvalidInteractionList},
		{name: "wrong arity", typ: "CustomBondForce", interactions: []restraints.Interaction{
			{Atoms: []restraints.ResAtom{{Residue: 5, Name: "CA"}}, Params: []float64{1}},
		}, wantErr: ErrInvalidInteractionList},
		{name: "wrong parameter count after a good one", typ: "CustomBondForce", interactions: []restraints.Interaction{
			interaction(5, "CA", 12, "N", 2.0),
			interaction(5, "CA", 12, "N", 2.0, 6.0),
		}, wantErr: ErrInvalidInteractionList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, O.AddRestraintInteractions(tt.typ, tt.interactions), tt.wantErr)
			assert.Zero(t, bondForce(t, O, "CustomBondForce").Len(), "nothing is added when the list is invalid")
		})
	}
	assert.NoError(t, O.AddRestraintInteractions("CustomBondForce", []restraints.Interaction{}))
	assert.ErrorIs(t, O.ApplyRestraintForce("CustomTorsionForce"), ErrUnknownRestraintType)
}

func TestNoTopology(t *testing.T) {
	O := NewFromSystem(openmm.NewSystem(), nil)
	require.NoError(t, O.InitializeRestraintForce(distanceDef(t)))
	err := O.AddRestraintInteractions("CustomBondForce", []restraints.Interaction{interaction(5, "CA", 12, "N", 2.0)})
	assert.ErrorIs(t, err, ErrNoTopology)
	err = O.InitializeRestraintForce(distanceDef(t), interaction(5, "CA", 12, "N", 2.0))
	assert.ErrorIs(t, err, ErrNoTopology)
	_, err = O.resolveAtom(1, "CA")
	assert.ErrorIs(t, err, ErrNoTopology)
}

func TestMalformedDefinitions(t *testing.T) {
	O := newTestSystem(t)
	def := distanceDef(t)
	def.RestraintType = "CustomCompoundBondForce"
	err := O.InitializeRestraintForce(def)
	assert.ErrorIs(t, err, restraints.ErrMalformedDefinition)
	assert.ErrorIs(t, err, openmm.ErrUnknownForce)

	def = distanceDef(t)
	def.SetupCalls = append(def.SetupCalls, restraints.Call{Method: "addPerAngleParameter", Args: []any{"theta0"}})
	err = O.InitializeRestraintForce(def)
	assert.ErrorIs(t, err, restraints.ErrMalformedDefinition)
	assert.ErrorIs(t, err, openmm.ErrUnknownMethod)

	def = distanceDef(t)
	def.Interaction.Arity = 0
	assert.ErrorIs(t, O.InitializeRestraintForce(def), restraints.ErrMalformedDefinition)

	//the interaction method and arity have to match the force, even with no interactions
	def = distanceDef(t)
	def.Interaction.Method = "addBnd"
	assert.ErrorIs(t, O.InitializeRestraintForce(def), restraints.ErrMalformedDefinition)
	def = distanceDef(t)
	def.Interaction.Arity = 3
	assert.ErrorIs(t, O.InitializeRestraintForce(def), restraints.ErrMalformedDefinition)
	assert.ErrorIs(t, O.InsertRestraintForce(def), restraints.ErrMalformedDefinition)
	assert.Empty(t, O.Restraints(), "failed definitions are not registered")
}

func TestHarmonicRestraint(t *testing.T) {
	O := newTestSystem(t)
	def := &restraints.Definition{
		RestraintType: "HarmonicBondForce",
		Interaction:   restraints.InteractionSpec{Method: "addBond", Arity: 2, Units: []float64{0.1, 1}},
	}
	require.NoError(t, O.InitializeRestraintForce(def, interaction(5, "CA", 12, "N", 4.0, 500)))
	r, ok := O.Restraint("HarmonicBondForce")
	require.True(t, ok)
	h, ok := r.Force.(*openmm.HarmonicBondForce)
	require.True(t, ok)
	require.Equal(t, 1, h.Len())
	b := h.Bond(0)
	assert.Equal(t, [2]int{1, 5}, [2]int{b.P1, b.P2})
	assert.InDelta(t, 0.4, b.Length, 1e-12)
	assert.Equal(t, 500.0, b.K)

	def.Interaction.Method = "addException"
	assert.ErrorIs(t, O.InitializeRestraintForce(def), restraints.ErrMalformedDefinition)
}

func TestRegistry(t *testing.T) {
	R := NewRegistry()
	a := &RegisteredRestraint{Method: "addBond", Arity: 2}
	b := &RegisteredRestraint{Method: "addTorsion", Arity: 4}
	require.NoError(t, R.Insert("x", a))
	assert.ErrorIs(t, R.Insert("x", b), ErrRestraintExists)
	got, ok := R.Get("x")
	require.True(t, ok)
	assert.Same(t, a, got)

	R.Replace("y", b)
	R.Replace("x", b)
	got, _ = R.Get("x")
	assert.Same(t, b, got)
	assert.Equal(t, []string{"x", "y"}, R.Types())
	assert.Equal(t, 2, R.Len())
	_, ok = R.Get("z")
	assert.False(t, ok)
}
