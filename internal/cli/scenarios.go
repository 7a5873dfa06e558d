package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List available scenarios and their parameters",
	RunE:  runScenarios,
}

var scenariosJSON bool

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.Flags().BoolVar(&scenariosJSON, "json", false, "print JSON instead of a table")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	sim, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	infos, err := sim.Scenarios(context.Background())
	if err != nil {
		return fmt.Errorf("list scenarios: %w", err)
	}
	if scenariosJSON {
		return writeJSON(cmd.OutOrStdout(), infos)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSLEEP\tWAKE\tAMPL\tPHASE\tUPPER\tLOWER\tDESCRIPTION")
	for _, info := range infos {
		p := info.Parameters
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.3f\t%.2f\t%.2f\t%s\n",
			info.Name, p.SleepDecayRate, p.WakeDecayRate, p.CircadianAmplitude,
			p.CircadianPhaseShift, p.UpperBoundBaseline, p.LowerBoundBaseline, info.Description)
	}
	return w.Flush()
}
