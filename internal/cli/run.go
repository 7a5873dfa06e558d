package cli

import (
	"context"
	"fmt"

	"SleepSim/internal/domain/models"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one scenario and print its sleep periods",
	Long: `Simulate one scenario and print its sleep periods.

Times accept plain hours or Go durations.

Examples:
  sleepctl run --scenario jet_lag --end 72
  sleepctl run --scenario shift_work --step 5m --set upper_bound_baseline=0.8
  sleepctl run --asleep --h0 0.4 --skip-first-wake --json`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// Flags
var (
	runScenario      string
	runStart         string
	runEnd           string
	runStep          string
	runH0            float64
	runAsleep        bool
	runSkipFirstWake bool
	runTrajectory    bool
	runJSON          bool
	runOverrides     []string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "baseline", "scenario name")
	addGridFlags(runCmd, &runStart, &runEnd, &runStep)
	runCmd.Flags().Float64Var(&runH0, "h0", 1, "initial sleep pressure")
	runCmd.Flags().BoolVar(&runAsleep, "asleep", false, "start the run asleep")
	runCmd.Flags().BoolVar(&runSkipFirstWake, "skip-first-wake", false, "drop periods before the first observed wake-up")
	runCmd.Flags().BoolVar(&runTrajectory, "trajectory", false, "include per-step series (JSON output only)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run as JSON")
	runCmd.Flags().StringArrayVar(&runOverrides, "set", nil, "parameter override name=value (repeatable)")
}

func addGridFlags(cmd *cobra.Command, start, end, step *string) {
	cmd.Flags().StringVar(start, "start", "0", "grid start in hours")
	cmd.Flags().StringVar(end, "end", "48", "grid end in hours")
	cmd.Flags().StringVar(step, "step", "0.1", "grid step in hours")
}

// gridRequest fills the grid fields of req from the shared flags.
func gridRequest(cmd *cobra.Command, req *models.SimulationRequest, start, end, step string) error {
	var err error
	if req.Start, err = hoursFlag(cmd, "start", start); err != nil {
		return err
	}
	if req.End, err = hoursFlag(cmd, "end", end); err != nil {
		return err
	}
	req.Step, err = hoursFlag(cmd, "step", step)
	return err
}

func runRun(cmd *cobra.Command, args []string) error {
	sim, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	overrides, err := parseOverrides(runOverrides)
	if err != nil {
		return err
	}

	awake := !runAsleep
	h0 := runH0
	req := models.SimulationRequest{
		Scenario:          runScenario,
		Overrides:         overrides,
		InitialPressure:   &h0,
		InitialAwake:      &awake,
		SkipFirstWake:     runSkipFirstWake,
		IncludeTrajectory: runTrajectory && runJSON,
	}
	if err := gridRequest(cmd, &req, runStart, runEnd, runStep); err != nil {
		return err
	}

	run, err := sim.Simulate(context.Background(), req)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	if runJSON {
		return writeJSON(cmd.OutOrStdout(), run)
	}
	return writePeriods(cmd.OutOrStdout(), run)
}
