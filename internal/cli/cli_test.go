package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"SleepSim/internal/domain/models"
	"SleepSim/internal/services/scenario"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sleepctl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestScenariosCommand(t *testing.T) {
	var infos []models.ScenarioInfo
	if err := json.Unmarshal([]byte(execute(t, "scenarios", "--json")), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != len(scenario.Builtins()) {
		t.Fatalf("scenarios: %d", len(infos))
	}
}

func TestRunCommandJSON(t *testing.T) {
	out := execute(t, "run", "--scenario", "baseline", "--start", "0", "--end", "48", "--step", "1h", "--json")
	var run models.SimulationRun
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if run.Grid.Points != 49 || len(run.Periods) == 0 {
		t.Fatalf("run: %+v", run)
	}
	if run.Periods[0].Onset != 1 || run.Periods[0].Offset != 5 {
		t.Fatalf("first period: %+v", run.Periods[0])
	}
}

func TestRunCommandRejectsBadOverride(t *testing.T) {
	rootCmd.SetArgs([]string{"run", "--set", "max_sleep_pressure"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "name=value") {
		t.Fatalf("expected override error, got %v", err)
	}
	runOverrides = nil
}

func TestBatchCommandTable(t *testing.T) {
	out := execute(t, "batch", "baseline", "shift_work", "--start", "0", "--end", "24", "--step", "0.5")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "SCENARIO") {
		t.Fatalf("table:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "baseline") || !strings.HasPrefix(lines[2], "shift_work") {
		t.Fatalf("rows out of order:\n%s", out)
	}
}

func TestParseOverrides(t *testing.T) {
	got, err := parseOverrides([]string{"sleep_decay_rate=5", " wake_decay_rate = 20"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["sleep_decay_rate"] != 5 || got["wake_decay_rate"] != 20 {
		t.Fatalf("overrides: %v", got)
	}
	if _, err := parseOverrides([]string{"=1"}); err == nil {
		t.Fatal("expected error for missing name")
	}
}
