package openmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v3 "github.com/rbdavid/exafold/v3"
)

func TestBondEnergy(t *testing.T) {
	coords, err := v3.NewMatrix([]float64{
		0, 0, 0,
		0.3, 0, 0,
		0, 0.1, 0,
	})
	require.NoError(t, err)
	F, err := NewCustomBondedForce("CustomBondForce", "step(r-r0)*k*(r-r0)^2")
	require.NoError(t, err)
	require.NoError(t, F.Call("addPerBondParameter", "r0"))
	require.NoError(t, F.Call("addGlobalParameter", "k", 100))
	require.NoError(t, F.Call("addBond", 0, 1, []float64{0.2})) //stretched by 0.1
	require.NoError(t, F.Call("addBond", 0, 2, []float64{0.2})) //inside the flat bottom

	E, err := NewEnergyEvaluator(F)
	require.NoError(t, err)
	r, err := E.Measure(coords, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, r, 1e-12)
	e0, err := E.TermEnergy(coords, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, e0, 1e-9)
	e1, err := E.TermEnergy(coords, 1)
	require.NoError(t, err)
	assert.Zero(t, e1)
	total, err := E.Energy(coords)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 1e-9)

	_, err = E.TermEnergy(coords, 2)
	assert.Error(t, err)
	require.NoError(t, F.Call("addBond", 0, 7, []float64{0.2}))
	_, err = E.Energy(coords)
	assert.ErrorContains(t, err, "not in coordinates")
	_, err = E.Measure(coords, 2)
	assert.ErrorContains(t, err, "[0 7]")
}

func TestEnergyDefinitions(t *testing.T) {
	coords, err := v3.NewMatrix([]float64{
		0, 0, 0,
		0.5, 0, 0,
	})
	require.NoError(t, err)
	F, err := NewCustomBondedForce("CustomBondForce", "w*d^2; d=r-r0; w=2*half; half=0.5")
	require.NoError(t, err)
	require.NoError(t, F.Call("addPerBondParameter", "r0"))
	require.NoError(t, F.Call("addBond", 0, 1, []float64{0.2}))
	E, err := NewEnergyEvaluator(F)
	require.NoError(t, err)
	e, err := E.Energy(coords)
	require.NoError(t, err)
	assert.InDelta(t, 0.09, e, 1e-12)
}

func TestTorsionEnergy(t *testing.T) {
	coords, err := v3.NewMatrix([]float64{
		1, 0, 0,
		0, 0, 0,
		0, 0, 1,
		1, 0, 1,
	})
	require.NoError(t, err)
	F, err := NewCustomBondedForce("CustomTorsionForce", "k*(1-cos(theta-theta0)); k=select(1, 10, 0)")
	require.NoError(t, err)
	require.NoError(t, F.Call("addPerTorsionParameter", "theta0"))
	require.NoError(t, F.Call("addTorsion", 0, 1, 2, 3, []float64{math.Pi}))
	E, err := NewEnergyEvaluator(F)
	require.NoError(t, err)
	theta, err := E.Measure(coords, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, theta, 1e-9)
	e, err := E.Energy(coords)
	require.NoError(t, err)
	assert.InDelta(t, 20, e, 1e-9)
}

func TestEnergyCompileErrors(t *testing.T) {
	for _, energy := range []string{"k*r", "r^2; =3", "r^2; d"} {
		F, err := NewCustomBondedForce("CustomBondForce", energy)
		require.NoError(t, err)
		_, err = NewEnergyEvaluator(F)
		assert.Error(t, err, energy)
	}
}
