package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rbdavid/exafold/mdsystem"
	"github.com/rbdavid/exafold/restraints"
)

// restrainOptions are the flags of the restrain command.
type restrainOptions struct {
	System       string
	Topology     string
	Prmtop       string
	Inpcrd       string
	Restraints   string
	Kind         string
	Repulsive    float64
	Output       string
	WriteTopoPDB bool
}

var restrainOpts restrainOptions

var restrainCmd = &cobra.Command{
	Use:   "restrain",
	Short: "Add a restraint force to a system and save it",
	Long: `restrain builds a system, either from a serialized system file (--system,
with the structure given in --topology) or from Amber files (--prmtop and
--inpcrd), adds one restraint force with a term for each line of the
restraint file and writes the system to <output_prefix>/system-<system_name>.xml.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := runRestrain(loadConfig(), restrainOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "system written to %s\n", out)
		return nil
	},
}

func init() {
	f := restrainCmd.Flags()
	f.StringVar(&restrainOpts.System, "system", "", "serialized system file (xml, xml.gz or xml.zst)")
	f.StringVar(&restrainOpts.Topology, "topology", "", "structure used to find the restrained atoms (pdb or prmtop)")
	f.StringVar(&restrainOpts.Prmtop, "prmtop", "", "Amber topology file")
	f.StringVar(&restrainOpts.Inpcrd, "inpcrd", "", "Amber coordinate file")
	f.StringVarP(&restrainOpts.Restraints, "restraints", "r", "", "restraint file")
	f.StringVarP(&restrainOpts.Kind, "type", "t", restraints.Distance, "restraint kind")
	f.Float64Var(&restrainOpts.Repulsive, "repulsive", 0, "replace the nonbonded force with a repulsive-only force with this weight")
	f.StringVarP(&restrainOpts.Output, "output", "o", "", "output file (default is <output_prefix>/system-<system_name>.xml)")
	f.BoolVar(&restrainOpts.WriteTopoPDB, "pdb", false, "also write the structure as <output_prefix>/structure-<system_name>.pdb")
	_ = restrainCmd.MarkFlagRequired("restraints")
	restrainCmd.MarkFlagsMutuallyExclusive("system", "prmtop")
	restrainCmd.MarkFlagsRequiredTogether("prmtop", "inpcrd")
	rootCmd.AddCommand(restrainCmd)
}

func (o restrainOptions) systemOptions(cfg runConfig) (mdsystem.Options, error) {
	switch {
	case o.Prmtop != "":
		return mdsystem.Options{FFType: "amber", Topology: cfg.input(o.Prmtop), Coordinates: cfg.input(o.Inpcrd)}, nil
	case o.System != "":
		if o.Topology == "" {
			return mdsystem.Options{}, errors.New("--topology is needed to locate restrained atoms in --system")
		}
		return mdsystem.Options{SystemFile: cfg.input(o.System), Topology: cfg.input(o.Topology)}, nil
	}
	return mdsystem.Options{}, errors.New("one of --system or --prmtop is required")
}

// runRestrain does the work of the restrain command and returns the path of
// the written system.
func runRestrain(cfg runConfig, o restrainOptions) (string, error) {
	catalog, err := cfg.catalog()
	if err != nil {
		return "", err
	}
	def, err := catalog.Definition(o.Kind)
	if err != nil {
		return "", err
	}
	opts, err := o.systemOptions(cfg)
	if err != nil {
		return "", err
	}
	interactions, err := restraints.ReadRestraints(cfg.input(o.Restraints), o.Kind)
	if err != nil {
		return "", err
	}
	O, err := mdsystem.New(opts)
	if err != nil {
		return "", err
	}
	if err := O.InitializeRestraintForce(def, interactions...); err != nil {
		return "", err
	}
	if err := O.ApplyRestraintForce(def.RestraintType); err != nil {
		return "", err
	}
	r, _ := O.Restraint(def.RestraintType)
	slog.Info("restraints added", "kind", o.Kind, "force", def.RestraintType, "read", len(interactions), "added", r.Force.Len())
	if o.Repulsive > 0 {
		if err := O.RemoveNonbondedForces(); err != nil {
			return "", err
		}
		if err := O.ApplyRepulsiveForce(o.Repulsive); err != nil {
			return "", err
		}
	}
	out := o.Output
	if out == "" {
		if out, err = cfg.systemOutput(); err != nil {
			return "", err
		}
	}
	if err := O.SaveXML(out); err != nil {
		return "", err
	}
	if o.WriteTopoPDB {
		pdb, err := cfg.output("structure", ".pdb")
		if err != nil {
			return "", err
		}
		if err := O.SavePDB(pdb); err != nil {
			return "", err
		}
	}
	return out, nil
}
