package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"SleepSim/internal/domain/models"
	"SleepSim/pkg/util"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [scenario...]",
	Short: "Compare several scenarios on the same grid",
	Long: `Run several scenarios concurrently on the same grid and print one summary row each.
With no arguments every registered scenario is run.`,
	RunE: runBatch,
}

// Flags
var (
	batchStart string
	batchEnd   string
	batchStep  string
	batchJSON  bool
)

func init() {
	rootCmd.AddCommand(batchCmd)

	addGridFlags(batchCmd, &batchStart, &batchEnd, &batchStep)
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the runs as JSON")
}

func runBatch(cmd *cobra.Command, args []string) error {
	sim, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()

	names := args
	if len(names) == 0 {
		infos, err := sim.Scenarios(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			names = append(names, info.Name)
		}
	}

	reqs := make([]models.SimulationRequest, len(names))
	for i, name := range names {
		reqs[i] = models.SimulationRequest{Scenario: name}
		if err := gridRequest(cmd, &reqs[i], batchStart, batchEnd, batchStep); err != nil {
			return err
		}
	}

	runs, err := sim.SimulateBatch(ctx, reqs)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if batchJSON {
		return writeJSON(cmd.OutOrStdout(), runs)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tPERIODS\tTOTAL\tFIRST ONSET\tFIRST OFFSET")
	for _, run := range runs {
		first, last := "-", "-"
		if len(run.Periods) > 0 {
			first = util.FormatClock(run.Periods[0].Onset)
			last = util.FormatClock(run.Periods[0].Offset)
		}
		fmt.Fprintf(w, "%s\t%d\t%.2fh\t%s\t%s\n", run.Scenario, len(run.Periods), run.TotalSleep, first, last)
	}
	return w.Flush()
}
