package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"SleepSim/internal/domain/models"
	"SleepSim/pkg/util"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writePeriods prints one row per sleep period followed by the run totals.
func writePeriods(w io.Writer, run *models.SimulationRun) error {
	fmt.Fprintf(w, "scenario %s  grid %g..%g step %g (%d points)  run %s\n",
		run.Scenario, run.Grid.Start, run.Grid.End, run.Grid.Step, run.Grid.Points, run.ID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tONSET\tOFFSET\tHOURS\tNOTE")
	for i, p := range run.Periods {
		note := ""
		switch {
		case p.SyntheticOnset && p.SyntheticOffset:
			note = "asleep throughout"
		case p.SyntheticOnset:
			note = "started asleep"
		case p.SyntheticOffset:
			note = "ended asleep"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n",
			i+1, util.FormatClock(p.Onset), util.FormatClock(p.Offset), p.Duration(), note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "total sleep %.2fh over %d periods\n", run.TotalSleep, len(run.Periods))
	return err
}
