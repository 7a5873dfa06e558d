package twoprocess

import (
	"reflect"
	"testing"
)

// wakeStates is awake everywhere except in the half-open index ranges given.
func wakeStates(n int, asleep ...[2]int) []bool {
	awake := make([]bool, n)
	for i := range awake {
		awake[i] = true
	}
	for _, r := range asleep {
		for i := r[0]; i < r[1] && i < n; i++ {
			awake[i] = false
		}
	}
	return awake
}

func TestFilterFirstWake(t *testing.T) {
	periods := []Period{
		{Onset: 0, Offset: 4, OffsetIndex: 4, SyntheticOnset: true},
		{Onset: 20, Offset: 28, OnsetIndex: 20, OffsetIndex: 28},
		{Onset: 44, Offset: 48, OnsetIndex: 44, OffsetIndex: 48, SyntheticOffset: true},
	}
	awake := wakeStates(49, [2]int{0, 4}, [2]int{20, 28}, [2]int{44, 49})
	got := FilterFirstWake(periods, awake)
	if !reflect.DeepEqual(got, periods[1:]) {
		t.Fatalf("got %+v", got)
	}
	// input untouched
	if len(periods) != 3 {
		t.Fatalf("input modified")
	}
}

func TestFilterFirstWakeKeepsRunsStartingAwake(t *testing.T) {
	periods := []Period{
		{Onset: 1, Offset: 5, OnsetIndex: 1, OffsetIndex: 5},
		{Onset: 20, Offset: 28, OnsetIndex: 20, OffsetIndex: 28},
	}
	// asleep from index 1, so the first waking index is 5 and the first period goes
	awake := wakeStates(30, [2]int{1, 5}, [2]int{20, 28})
	if got := FilterFirstWake(periods, awake); !reflect.DeepEqual(got, periods[1:]) {
		t.Fatalf("got %+v", got)
	}
	// awake at index 1: nothing is dropped
	awake = wakeStates(30, [2]int{2, 5}, [2]int{20, 28})
	periods[0].Onset, periods[0].OnsetIndex = 2, 2
	if got := FilterFirstWake(periods, awake); !reflect.DeepEqual(got, periods) {
		t.Fatalf("got %+v", got)
	}
}

func TestFilterFirstWakeWithoutWakeUp(t *testing.T) {
	only := []Period{{Onset: 0, Offset: 48, OffsetIndex: 48, SyntheticOnset: true, SyntheticOffset: true}}
	if got := FilterFirstWake(only, wakeStates(49, [2]int{0, 49})); got == nil || len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
	if got := FilterFirstWake(nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
}

// Half-hour grid over 100 hours from low pressure, starting awake: every recorded period
// follows a waking index, so the filter keeps them all.
func TestPeriodsAfterFirstWakeLowPressureStart(t *testing.T) {
	m, err := Build(DefaultParameters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	grid, err := UniformGrid(0, 99.5, 0.5)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	res, err := m.Run(grid, 0.1, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.FirstWakeIndex() != 1 {
		t.Fatalf("first wake index: %d", res.FirstWakeIndex())
	}
	all := res.Periods()
	if len(all) != 4 || all[0].Onset != 13 || all[0].Offset != 23 {
		t.Fatalf("periods: %+v", all)
	}
	if got := res.PeriodsAfterFirstWake(); !reflect.DeepEqual(got, all) {
		t.Fatalf("filter dropped periods: got %+v want %+v", got, all)
	}
}

func TestResultAccessorsReturnCopies(t *testing.T) {
	m, err := Build(DefaultParameters())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := m.Run([]float64{0, 1, 2, 3, 4, 5, 6}, 1, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	p := res.Pressure()
	p[0] = 99
	if res.Pressure()[0] == 99 {
		t.Fatalf("pressure accessor exposes internal slice")
	}
	a := res.Awake()
	a[0] = !a[0]
	if res.Awake()[0] == a[0] {
		t.Fatalf("awake accessor exposes internal slice")
	}
	periods := res.Periods()
	if len(periods) > 0 {
		periods[0].Onset = -1
		if res.Periods()[0].Onset == -1 {
			t.Fatalf("periods accessor exposes internal slice")
		}
	}
}
