package restraints

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]any {
	return map[string]any{
		"CustomBondForce": map[string]any{
			"formula": []any{"step(r-r0)*k*(r-r0)^2"},
			"parameters": []any{
				map[string]any{"addPerBondParameter": []any{"r0"}},
				map[string]any{"addGlobalParameter": []any{"k", 1000.0}},
			},
			"restraint": map[string]any{"addBond": []any{2, 1}},
			"units":     []any{0.1},
		},
	}
}

func TestParseRestraintDefinition(t *testing.T) {
	D, err := ParseRestraintDefinition(validRaw())
	require.NoError(t, err)
	assert.Equal(t, "CustomBondForce", D.RestraintType)
	assert.Equal(t, []any{"step(r-r0)*k*(r-r0)^2"}, D.Formula)
	assert.Equal(t, []Call{
		{Method: "addPerBondParameter", Args: []any{"r0"}},
		{Method: "addGlobalParameter", Args: []any{"k", 1000.0}},
	}, D.SetupCalls)
	assert.Equal(t, InteractionSpec{Method: "addBond", Arity: 2, Units: []float64{0.1}}, D.Interaction)
}

func TestParseRestraintDefinitionErrors(t *testing.T) {
	body := func(mod func(m map[string]any)) map[string]any {
		raw := validRaw()
		mod(raw["CustomBondForce"].(map[string]any))
		return raw
	}
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{name: "no keys", raw: map[string]any{}},
		{name: "two keys", raw: map[string]any{"CustomBondForce": validRaw()["CustomBondForce"], "CustomAngleForce": validRaw()["CustomBondForce"]}},
		{name: "not a mapping", raw: map[string]any{"CustomBondForce": []any{1, 2}}},
		{name: "no restraint", raw: body(func(m map[string]any) { delete(m, "restraint") })},
		{name: "restraint with two methods", raw: body(func(m map[string]any) {
			m["restraint"] = map[string]any{"addBond": []any{2, 1}, "addAngle": []any{3, 1}}
		})},
		{name: "arity not an integer", raw: body(func(m map[string]any) { m["restraint"] = map[string]any{"addBond": []any{2.5, 1}} })},
		{name: "arity as string", raw: body(func(m map[string]any) { m["restraint"] = map[string]any{"addBond": []any{"2", 1}} })},
		{name: "arity zero", raw: body(func(m map[string]any) { m["restraint"] = map[string]any{"addBond": []any{0, 1}} })},
		{name: "unit count mismatch", raw: body(func(m map[string]any) { m["units"] = []any{0.1, 1.0} })},
		{name: "no units", raw: body(func(m map[string]any) { delete(m, "units") })},
		{name: "restraint without counts", raw: body(func(m map[string]any) { m["restraint"] = map[string]any{"addBond": []any{2}} })},
		{name: "setup entry with two methods", raw: body(func(m map[string]any) {
			m["parameters"] = []any{map[string]any{"addPerBondParameter": []any{"r0"}, "addGlobalParameter": []any{"k", 1}}}
		})},
		{name: "setup entry not a mapping", raw: body(func(m map[string]any) { m["parameters"] = []any{"addPerBondParameter"} })},
		{name: "unit not a number", raw: body(func(m map[string]any) { m["units"] = []any{"tenth"} })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRestraintDefinition(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedDefinition)
		})
	}
}

func TestValidate(t *testing.T) {
	D := Builtin()["distance"].Copy()
	require.NoError(t, D.Validate())
	D.Interaction.Arity = -1
	assert.ErrorIs(t, D.Validate(), ErrMalformedDefinition)
	D = Builtin()["distance"].Copy()
	D.SetupCalls[0].Method = ""
	assert.ErrorIs(t, D.Validate(), ErrMalformedDefinition)
	var nilDef *Definition
	assert.ErrorIs(t, nilDef.Validate(), ErrMalformedDefinition)
}

func TestCopy(t *testing.T) {
	orig := Builtin()["distance"]
	cp := orig.Copy()
	cp.Interaction.Units[0] = 10
	cp.SetupCalls[0].Args[0] = "d0"
	assert.Equal(t, 0.1, orig.Interaction.Units[0])
	assert.Equal(t, "r0", orig.SetupCalls[0].Args[0])
}

func TestLoadDefinitions(t *testing.T) {
	f, err := os.Open("../test/definitions.yaml")
	require.NoError(t, err)
	defer f.Close()
	C, err := LoadDefinitions(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "position"}, C.Kinds())

	D, err := C.Definition("position")
	require.NoError(t, err)
	assert.Equal(t, "CustomExternalForce", D.RestraintType)
	assert.Equal(t, 1, D.Interaction.Arity)
	assert.Equal(t, []float64{0.1, 0.1, 0.1}, D.Interaction.Units)
	assert.Len(t, D.SetupCalls, 4)

	D, err = C.Definition("distance")
	require.NoError(t, err)
	assert.Equal(t, "setForceGroup", D.SetupCalls[2].Method)

	_, err = C.Definition("angle")
	assert.ErrorIs(t, err, ErrUnsupportedRestraintType)

	merged := Builtin().Merge(C)
	assert.Equal(t, []string{"distance", "position", "torsion"}, merged.Kinds())
	D, _ = merged.Definition("distance")
	assert.Equal(t, []any{"k*max(0, r-r0)^2"}, D.Formula)

	_, err = LoadDefinitions(strings.NewReader("distance:\n  CustomBondForce:\n    restraint:\n      addBond: [2.5, 1]\n    units: [0.1]\n"))
	assert.ErrorIs(t, err, ErrMalformedDefinition)
	_, err = LoadDefinitions(strings.NewReader("distance: [1, 2]\n"))
	assert.ErrorIs(t, err, ErrMalformedDefinition)
	_, err = LoadDefinitions(strings.NewReader("distance: {CustomBondForce: [\n"))
	assert.Error(t, err)
}

func TestLoadDefinitionsFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/catalogs/noe.yaml", []byte(`noe:
  CustomBondForce:
    formula: ["k*(r-r0)^2"]
    parameters:
      - addPerBondParameter: [r0]
      - addGlobalParameter: [k, 250.0]
    restraint:
      addBond: [2, 1]
    units: [0.1]
`), 0o644))
	C, err := LoadDefinitionsFs(fs, "/catalogs/noe.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"noe"}, C.Kinds())
	D, err := C.Definition("noe")
	require.NoError(t, err)
	assert.Equal(t, "CustomBondForce", D.RestraintType)
	assert.Equal(t, InteractionSpec{Method: "addBond", Arity: 2, Units: []float64{0.1}}, D.Interaction)

	_, err = LoadDefinitionsFs(fs, "/catalogs/missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, afero.WriteFile(fs, "/catalogs/bad.yaml", []byte("noe: [1, 2]\n"), 0o644))
	_, err = LoadDefinitionsFs(fs, "/catalogs/bad.yaml")
	assert.ErrorIs(t, err, ErrMalformedDefinition)
	assert.ErrorContains(t, err, "/catalogs/bad.yaml")
}

func TestBuiltin(t *testing.T) {
	C := Builtin()
	for _, kind := range C.Kinds() {
		require.NoError(t, C[kind].Validate(), kind)
	}
	assert.Equal(t, 2, C["distance"].Interaction.Arity)
	assert.Equal(t, 4, C["torsion"].Interaction.Arity)
}
