package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rbdavid/exafold/openmm"
)

// maxParallelReads bounds how many system files inspect reads at once.
const maxParallelReads = 4

var inspectCmd = &cobra.Command{
	Use:   "inspect <system file>...",
	Short: "List the forces in serialized systems",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		names := make([]string, len(args))
		for i, a := range args {
			names[i] = cfg.input(a)
		}
		systems, err := readSystems(cmd.Context(), names)
		if err != nil {
			return err
		}
		for i, S := range systems {
			if err := describeSystem(cmd.OutOrStdout(), names[i], S); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// readSystems reads the named system files concurrently. The systems are
// returned in the order of names.
func readSystems(ctx context.Context, names []string) ([]*openmm.System, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	systems := make([]*openmm.System, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			S, err := openmm.ReadXMLFile(name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			systems[i] = S
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return systems, nil
}

func describeSystem(w io.Writer, name string, S *openmm.System) error {
	fmt.Fprintf(w, "%s: %d particles, %d constraints, %d forces\n", name, S.NumParticles(), S.NumConstraints(), S.NumForces())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tCLASS\tNAME\tGROUP\tTERMS")
	for i, F := range S.Forces() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i, F.Class(), F.Name(), F.ForceGroup(), F.Len())
	}
	return tw.Flush()
}
