package mdsystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chem "github.com/rbdavid/exafold"
	"github.com/rbdavid/exafold/openmm"
	"github.com/rbdavid/exafold/restraints"
)

func amberSystem(t *testing.T) *OmmSystem {
	t.Helper()
	O, err := New(Options{FFType: "amber", Topology: "../test/ala_gly.prmtop", Coordinates: "../test/ala_gly.inpcrd"})
	require.NoError(t, err)
	return O
}

func TestNewAmber(t *testing.T) {
	O := amberSystem(t)
	assert.Equal(t, 10, O.System.NumParticles())
	assert.InDelta(t, 14.01, O.System.ParticleMass(0), 1e-9)
	require.NotNil(t, O.Topology())
	assert.Equal(t, 3, O.Topology().NResidues())
	require.NotNil(t, O.InitialPositions())
	assert.Equal(t, 10, O.InitialPositions().NVecs())
	assert.Equal(t, 0, O.GetForceID("NonbondedForce"))

	//residues in a prmtop are numbered from 1
	require.NoError(t, O.InitializeRestraintForce(distanceDef(t), interaction(1, "CA", 2, "N", 2.0)))
	assert.Equal(t, []int{1, 5}, bondForce(t, O, "CustomBondForce").Term(0).Particles)
}

func TestNewOptions(t *testing.T) {
	O, err := New(Options{})
	require.NoError(t, err)
	assert.Zero(t, O.System.NumParticles())
	assert.Nil(t, O.Topology())
	assert.Nil(t, O.InitialPositions())

	_, err = New(Options{FFType: "amber", SystemFile: "system.xml"})
	assert.Error(t, err)
	_, err = New(Options{FFType: "charmm", Topology: "a.psf", Coordinates: "a.crd"})
	assert.Error(t, err)
	_, err = New(Options{FFType: "amber", Topology: "../test/ala_gly.prmtop"})
	assert.Error(t, err)
	_, err = New(Options{SystemFile: "../test/missing.xml"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestForceUtilities(t *testing.T) {
	O := amberSystem(t)
	assert.Nil(t, O.GetForce("HarmonicBondForce"))
	assert.Equal(t, -1, O.GetForceID("HarmonicBondForce"))
	assert.Error(t, O.ApplyRepulsiveForce(1), "the nonbonded force was not removed")
	_, err := O.ApplyNonbondedForces()
	assert.ErrorIs(t, err, ErrNoForce)
	assert.ErrorIs(t, O.RemoveRepulsiveForce(), ErrNoForce)

	nb, ok := O.GetForce("NonbondedForce").(*openmm.NonbondedForce)
	require.True(t, ok)
	require.NoError(t, O.RemoveNonbondedForces())
	assert.Zero(t, O.System.NumForces())
	assert.ErrorIs(t, O.RemoveNonbondedForces(), ErrNoForce)

	require.NoError(t, O.ApplyRepulsiveForce(2.5))
	rep, ok := O.GetForce("CustomNonbondedForce").(*openmm.CustomNonbondedForce)
	require.True(t, ok)
	assert.Equal(t, RepulsiveEnergy, rep.Energy())
	assert.Equal(t, 10, rep.Len())
	assert.Equal(t, []float64{nb.Particle(3).Sigma}, rep.Particle(3))
	assert.Equal(t, openmm.CutoffPeriodic, rep.NonbondedMethod())
	assert.Equal(t, nb.CutoffDistance(), rep.CutoffDistance())
	assert.Equal(t, []openmm.GlobalParameter{{Name: "w_a", Default: 2.5}}, rep.GlobalParameters())

	i, err := O.ApplyNonbondedForces()
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Same(t, nb, O.GetForce("NonbondedForce"))

	require.NoError(t, O.RemoveRepulsiveForce())
	assert.Equal(t, -1, O.GetForceID("CustomNonbondedForce"))
	assert.Equal(t, 0, O.GetForceID("NonbondedForce"))
	_, err = O.ApplyNonbondedForces()
	require.NoError(t, err)
	assert.Equal(t, 1, O.GetForceID("CustomNonbondedForce"))
}

func TestSaveLoadXML(t *testing.T) {
	O := newTestSystem(t)
	interactions, err := restraints.ReadRestraints("../test/distance_restraints.txt", restraints.Distance)
	require.NoError(t, err)
	require.NoError(t, O.InitializeRestraintForce(distanceDef(t), interactions...))
	require.NoError(t, O.ApplyRestraintForce("CustomBondForce"))

	dir := t.TempDir()
	for _, name := range []string{"system.xml", "system.xml.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(t, O.SaveXML(path))
		O2, err := New(Options{SystemFile: path, Topology: "../test/ala_gly.pdb"})
		require.NoError(t, err)
		assert.Equal(t, 10, O2.System.NumParticles())
		assert.NotNil(t, O2.Topology())
		assert.NotNil(t, O2.InitialPositions())
		F, ok := O2.GetForce("CustomBondForce").(*openmm.CustomBondedForce)
		require.True(t, ok)
		assert.Equal(t, 3, F.Len())
		assert.Equal(t, []int{9, 8}, F.Term(2).Particles)
	}
	_, err = New(Options{SystemFile: filepath.Join(dir, "system.xml"), Topology: "../test/ala_gly.inpcrd"})
	assert.Error(t, err, "inpcrd is not a topology")
}

func shortRetries(t *testing.T, retries uint64, wait time.Duration) {
	oldRetries, oldWait := loadRetries, loadMaxWait
	loadRetries, loadMaxWait = retries, wait
	t.Cleanup(func() { loadRetries, loadMaxWait = oldRetries, oldWait })
}

func TestLoadXMLRetries(t *testing.T) {
	shortRetries(t, 3, time.Millisecond)
	bad := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<System><Particles>"), 0o644))
	O := newTestSystem(t)
	err := O.LoadXML(bad)
	assert.ErrorIs(t, err, openmm.ErrFormat)
	assert.Equal(t, 10, O.System.NumParticles(), "the system is kept when loading fails")

	err = O.LoadXML(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, openmm.ErrFormat)
}

func TestLoadXMLRecovers(t *testing.T) {
	shortRetries(t, 20, 20*time.Millisecond)
	dir := t.TempDir()
	path := filepath.Join(dir, "system.xml")
	require.NoError(t, os.WriteFile(path, []byte("<System><Forc"), 0o644))
	src := newTestSystem(t)
	done := make(chan error, 1)
	go func() {
		time.Sleep(30 * time.Millisecond)
		tmp := filepath.Join(dir, "tmp.xml")
		if err := src.SaveXML(tmp); err != nil {
			done <- err
			return
		}
		done <- os.Rename(tmp, path)
	}()
	O := NewFromSystem(openmm.NewSystem(), nil)
	require.NoError(t, O.LoadXML(path))
	require.NoError(t, <-done)
	assert.Equal(t, 10, O.System.NumParticles())
}

func TestSavePDB(t *testing.T) {
	O := amberSystem(t)
	path := filepath.Join(t.TempDir(), "out.pdb")
	require.NoError(t, O.SavePDB(path))
	top, coords, err := chem.PDBFileRead(path)
	require.NoError(t, err)
	assert.Equal(t, 10, top.Len())
	assert.InDelta(t, 10.0, coords[0].At(9, 0), 1e-3)

	O.SetInitialPositions(nil)
	require.NoError(t, O.SavePDB(path))

	empty := NewFromSystem(openmm.NewSystem(), nil)
	assert.ErrorIs(t, empty.SavePDB(path), ErrNoTopology)
}
