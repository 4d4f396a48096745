package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/rbdavid/exafold/restraints"
)

const (
	keySystemName   = "system_name"
	keyInputPrefix  = "input_prefix"
	keyOutputPrefix = "output_prefix"
	keyDefinitions  = "definitions"
)

func setConfigDefaults() {
	viper.SetDefault(keySystemName, "system")
	viper.SetDefault(keyInputPrefix, "")
	viper.SetDefault(keyOutputPrefix, ".")
	viper.SetDefault(keyDefinitions, "")
}

// runConfig is the configuration shared by all commands.
type runConfig struct {
	SystemName   string
	InputPrefix  string
	OutputPrefix string
	// Definitions is an optional YAML catalog merged over the builtin restraint definitions.
	Definitions string
}

func loadConfig() runConfig {
	return runConfig{
		SystemName:   viper.GetString(keySystemName),
		InputPrefix:  viper.GetString(keyInputPrefix),
		OutputPrefix: viper.GetString(keyOutputPrefix),
		Definitions:  viper.GetString(keyDefinitions),
	}
}

// input resolves name against the input prefix. Absolute and empty names are
// returned unchanged.
func (c runConfig) input(name string) string {
	if name == "" || filepath.IsAbs(name) || c.InputPrefix == "" {
		return name
	}
	return filepath.Join(c.InputPrefix, name)
}

// output returns <output_prefix>/<base>-<system_name><ext>, creating the
// output directory if needed.
func (c runConfig) output(base, ext string) (string, error) {
	dir := c.OutputPrefix
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, c.SystemName, ext)), nil
}

func (c runConfig) systemOutput() (string, error) {
	return c.output("system", ".xml")
}

// catalog returns the builtin restraint definitions, with those in the
// configured definitions file taking precedence.
func (c runConfig) catalog() (restraints.Catalog, error) {
	cat := restraints.Builtin()
	if c.Definitions == "" {
		return cat, nil
	}
	extra, err := restraints.LoadDefinitionsFile(c.input(c.Definitions))
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded restraint definitions", "file", c.Definitions, "kinds", extra.Kinds())
	return cat.Merge(extra), nil
}
