package usecase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"SleepSim/internal/domain/models"
	"SleepSim/internal/services/scenario"
	"SleepSim/internal/services/twoprocess"
	applogger "SleepSim/pkg/logger"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestDebugLogListsThresholdAndPeriods(t *testing.T) {
	reg, err := scenario.NewRegistry(twoprocess.DefaultParameters())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	var buf bytes.Buffer
	sim := NewSimulator(reg, newFakeMetrics(), applogger.NewWriter(&buf, "debug"),
		WithGridDefaults(GridDefaults{Start: 0, End: 48, Step: 1, MaxPoints: 1000}))

	run, err := sim.Simulate(context.Background(), models.SimulationRequest{})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	var thresholds, periods []map[string]any
	for _, e := range decodeEntries(t, &buf) {
		switch e["message"] {
		case "wakefulness threshold":
			thresholds = append(thresholds, e)
		case "sleep period":
			periods = append(periods, e)
		}
	}
	if len(thresholds) != 1 {
		t.Fatalf("threshold entries = %d, want 1", len(thresholds))
	}
	if got := thresholds[0]["wake_baseline_pressure"]; got != twoprocess.DefaultParameters().WakeBaselinePressure {
		t.Fatalf("wake_baseline_pressure = %v", got)
	}
	if thresholds[0]["scenario"] != scenario.Baseline {
		t.Fatalf("scenario = %v", thresholds[0]["scenario"])
	}
	if len(periods) != len(run.Periods) || len(periods) == 0 {
		t.Fatalf("period entries = %d, run has %d", len(periods), len(run.Periods))
	}
	for i, e := range periods {
		if e["period"] != float64(i+1) || e["start"] != run.Periods[i].Onset || e["end"] != run.Periods[i].Offset {
			t.Fatalf("period entry %d = %v, want %+v", i, e, run.Periods[i])
		}
		if e["run_id"] != run.ID {
			t.Fatalf("run_id = %v, want %s", e["run_id"], run.ID)
		}
	}
}

func TestInfoLogSkipsPeriodDetail(t *testing.T) {
	reg, err := scenario.NewRegistry(twoprocess.DefaultParameters())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	var buf bytes.Buffer
	sim := NewSimulator(reg, newFakeMetrics(), applogger.NewWriter(&buf, "info"),
		WithGridDefaults(GridDefaults{Start: 0, End: 48, Step: 1, MaxPoints: 1000}))
	if _, err := sim.Simulate(context.Background(), models.SimulationRequest{}); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for _, e := range decodeEntries(t, &buf) {
		if e["message"] == "wakefulness threshold" || e["message"] == "sleep period" {
			t.Fatalf("debug entry at info level: %v", e)
		}
	}
}
