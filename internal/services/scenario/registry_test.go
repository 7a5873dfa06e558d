package scenario

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"SleepSim/internal/services/twoprocess"
)

func TestRegistryBuiltins(t *testing.T) {
	r, err := NewRegistry(twoprocess.DefaultParameters())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	want := []string{"age", "baseline", "default", "jet_lag", "light_exposure", "shift_work", "sleep_deprived"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names: got %v want %v", got, want)
	}
	base, err := r.Resolve("")
	if err != nil || base != twoprocess.DefaultParameters() {
		t.Fatalf("empty name should resolve to baseline: %+v %v", base, err)
	}
	cases := []struct {
		name             string
		amplitude, phase float64
	}{
		{"default", 0.2, 0},
		{"light_exposure", 0.2, 2},
		{"age", 0.1, -2},
		{"jet_lag", 0.15, 4},
		{"shift_work", 0.15, -4},
		{"sleep_deprived", 0.4, 0},
	}
	for _, tc := range cases {
		p, err := r.Resolve(tc.name)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if p.CircadianAmplitude != tc.amplitude || p.CircadianPhaseShift != tc.phase {
			t.Fatalf("%s: amplitude %g phase %g", tc.name, p.CircadianAmplitude, p.CircadianPhaseShift)
		}
		// only the circadian rhythm differs from the base set
		p.CircadianAmplitude, p.CircadianPhaseShift = base.CircadianAmplitude, base.CircadianPhaseShift
		if p != base {
			t.Fatalf("%s changes more than the circadian rhythm: %+v", tc.name, p)
		}
	}
}

func TestRegistryUnknownScenario(t *testing.T) {
	r, _ := NewRegistry(twoprocess.DefaultParameters())
	if _, err := r.Resolve("nap"); !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
}

func TestRegistryExtraOverridesBuiltin(t *testing.T) {
	r, err := NewRegistry(twoprocess.DefaultParameters(),
		Scenario{Name: "jet_lag", Delta: Delta{UpperBoundBaseline: Float(0.9)}},
		Scenario{Name: "night_shift", Delta: Delta{CircadianPhaseShift: Float(math.Pi)}},
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	p, _ := r.Resolve("jet_lag")
	if p.UpperBoundBaseline != 0.9 || p.CircadianPhaseShift != 0 {
		t.Fatalf("jet_lag should be replaced wholesale: %+v", p)
	}
	if _, err := r.Resolve("night_shift"); err != nil {
		t.Fatalf("night_shift: %v", err)
	}
}

func TestRegistryRejectsInvalidScenario(t *testing.T) {
	_, err := NewRegistry(twoprocess.DefaultParameters(),
		Scenario{Name: "broken", Delta: Delta{LowerBoundBaseline: Float(2)}},
	)
	if !errors.Is(err, twoprocess.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestResolveWithOverrides(t *testing.T) {
	r, _ := NewRegistry(twoprocess.DefaultParameters())
	p, err := r.ResolveWith("sleep_deprived", Delta{SleepDecayRate: Float(3), CircadianAmplitude: Float(0.1)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.SleepDecayRate != 3 || p.CircadianAmplitude != 0.1 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if _, err := r.ResolveWith("baseline", Delta{MaxSleepPressure: Float(0)}); !errors.Is(err, twoprocess.ErrInvalidParameters) {
		t.Fatalf("expected invalid parameters, got %v", err)
	}
}

func TestDeltaMergeAndZero(t *testing.T) {
	if !(Delta{}).IsZero() {
		t.Fatalf("empty delta should be zero")
	}
	a := Delta{SleepDecayRate: Float(1), WakeDecayRate: Float(2)}
	b := Delta{WakeDecayRate: Float(3)}
	m := a.Merge(b)
	if *m.SleepDecayRate != 1 || *m.WakeDecayRate != 3 {
		t.Fatalf("merge: %+v", m)
	}
	if *a.WakeDecayRate != 2 {
		t.Fatalf("merge modified receiver")
	}
}

func TestDeltaFromMap(t *testing.T) {
	d, err := DeltaFromMap(map[string]float64{"circadian_amplitude": 0.5, "max_sleep_pressure": 2})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	p := d.Apply(twoprocess.DefaultParameters())
	if p.CircadianAmplitude != 0.5 || p.MaxSleepPressure != 2 {
		t.Fatalf("apply: %+v", p)
	}
	if _, err := DeltaFromMap(map[string]float64{"amplitude": 1}); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
