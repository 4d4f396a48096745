package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	chem "github.com/rbdavid/exafold"
	"github.com/rbdavid/exafold/chemplot"
	"github.com/rbdavid/exafold/mdsystem"
	"github.com/rbdavid/exafold/openmm"
	"github.com/rbdavid/exafold/restraints"
	v3 "github.com/rbdavid/exafold/v3"
)

type plotOptions struct {
	Structure  string
	Restraints string
	Output     string
	Tolerance  float64
}

var plotOpts plotOptions

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot measured against target distances for a restraint file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, viol, err := runPlot(loadConfig(), plotOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "plot written to %s, %d restraints violated by more than %.2f A\n", out, len(viol), plotOpts.Tolerance)
		return nil
	},
}

func init() {
	f := plotCmd.Flags()
	f.StringVarP(&plotOpts.Structure, "structure", "s", "", "pdb file with the structure to check")
	f.StringVarP(&plotOpts.Restraints, "restraints", "r", "", "distance restraint file")
	f.StringVarP(&plotOpts.Output, "output", "o", "", "plot file (default is <output_prefix>/restraints-<system_name>.png)")
	f.Float64Var(&plotOpts.Tolerance, "tolerance", 0.5, "violations under this value (A) are not reported")
	_ = plotCmd.MarkFlagRequired("structure")
	_ = plotCmd.MarkFlagRequired("restraints")
	rootCmd.AddCommand(plotCmd)
}

// runPlot measures the restrained distances on the structure, plots them and returns the plot
// file and the indexes of the violated restraints.
func runPlot(cfg runConfig, o plotOptions) (string, []int, error) {
	catalog, err := cfg.catalog()
	if err != nil {
		return "", nil, err
	}
	def, err := catalog.Definition(restraints.Distance)
	if err != nil {
		return "", nil, err
	}
	top, coords, err := chem.PDBFileRead(cfg.input(o.Structure))
	if err != nil {
		return "", nil, err
	}
	if len(coords) == 0 {
		return "", nil, fmt.Errorf("no coordinates in %s", o.Structure)
	}
	interactions, err := restraints.ReadRestraints(cfg.input(o.Restraints), restraints.Distance)
	if err != nil {
		return "", nil, err
	}
	O := mdsystem.NewFromSystem(openmm.NewSystem(), top)
	if err := O.InitializeRestraintForce(def, interactions...); err != nil {
		return "", nil, err
	}
	r, _ := O.Restraint(def.RestraintType)
	F, ok := r.Force.(*openmm.CustomBondedForce)
	if !ok || F.Arity() != 2 {
		return "", nil, errors.New("the distance restraint definition is not a two-particle custom force")
	}
	ev, err := openmm.NewEnergyEvaluator(F)
	if err != nil {
		return "", nil, err
	}
	//the force works in nm, the structure is in A
	nm := v3.Zeros(coords[0].NVecs())
	nm.Scale(0.1, coords[0])
	points := make([]chemplot.RestraintPoint, F.Len())
	for i := range points {
		d, err := ev.Measure(nm, i)
		if err != nil {
			return "", nil, err
		}
		points[i] = chemplot.RestraintPoint{Target: F.Term(i).Params[0] * 10, Measured: d * 10}
	}
	out := o.Output
	if out == "" {
		if out, err = cfg.output("restraints", ".png"); err != nil {
			return "", nil, err
		}
	}
	if err := chemplot.RestraintPlot(points, "Restraints "+cfg.SystemName, "(A)", out); err != nil {
		return "", nil, err
	}
	viol := chemplot.Violations(points, o.Tolerance)
	slog.Debug("restraints measured", "structure", o.Structure, "restraints", len(points), "violated", len(viol))
	return out, viol, nil
}
