package twoprocess

import (
	"fmt"
	"math"
)

// Model is a validated parameter set ready to run. It holds no per-run state and is safe
// for concurrent use.
type Model struct {
	params    Parameters
	circadian Circadian
	homeostat Homeostat
}

// Build validates p and returns a runnable model.
func Build(p Parameters) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{
		params:    p,
		circadian: NewCircadian(p),
		homeostat: NewHomeostat(p),
	}, nil
}

func (m *Model) Parameters() Parameters { return m.params }
func (m *Model) Circadian() Circadian { return m.circadian }
func (m *Model) Homeostat() Homeostat { return m.homeostat }

// Run steps sleep pressure across grid, starting from initialPressure (divided once by
// MaxSleepPressure) in the given wake state.
//
// Awake→asleep fires when pressure reaches the upper threshold, asleep→awake when it falls
// to the lower threshold; both comparisons are inclusive. A sleep onset at the final grid
// index flips the state but is not recorded, so no zero-length period is opened.
func (m *Model) Run(grid []float64, initialPressure float64, initialAwake bool, observers ...Observer) (*Result, error) {
	if err := ValidateGrid(grid); err != nil {
		return nil, err
	}
	if math.IsNaN(initialPressure) || math.IsInf(initialPressure, 0) || initialPressure < 0 {
		return nil, fmt.Errorf("%w: initial pressure %g", ErrInvalidInitialState, initialPressure)
	}

	n := len(grid)
	last := n - 1
	signal, upper, lower := m.circadian.Thresholds(grid)
	time := cloneFloats(grid)
	pressure := make([]float64, n)
	awake := make([]bool, n)

	var onsets, offsets []float64
	periods := []Period{}
	open := -1

	pressure[0] = initialPressure / m.params.MaxSleepPressure
	awake[0] = initialAwake
	if !initialAwake {
		onsets = append(onsets, time[0])
		open = 0
	}
	notify(observers, Step{
		Index:     0,
		Time:      time[0],
		Pressure:  pressure[0],
		Upper:     upper[0],
		Lower:     lower[0],
		Circadian: signal[0],
		Awake:     awake[0],
	})

	for i := 1; i < n; i++ {
		dt := time[i] - time[i-1]
		h, err := m.homeostat.Step(pressure[i-1], dt, awake[i-1])
		if err != nil {
			return nil, &RunError{Index: i, Time: time[i], Wrapped: err}
		}
		pressure[i] = h

		step := Step{
			Index:     i,
			Time:      time[i],
			Delta:     dt,
			Pressure:  h,
			Upper:     upper[i],
			Lower:     lower[i],
			Circadian: signal[i],
		}
		switch {
		case awake[i-1] && h >= upper[i]:
			awake[i] = false
			step.Transition = SleepOnset
			if i < last {
				onsets = append(onsets, time[i])
				open = i
				step.Recorded = true
			}
		case !awake[i-1] && h <= lower[i]:
			awake[i] = true
			step.Transition = WakeOnset
			step.Recorded = true
			offsets = append(offsets, time[i])
			periods = append(periods, Period{
				Onset:          time[open],
				Offset:         time[i],
				OnsetIndex:     open,
				OffsetIndex:    i,
				SyntheticOnset: open == 0 && !initialAwake,
			})
			open = -1
		default:
			awake[i] = awake[i-1]
		}
		step.Awake = awake[i]
		notify(observers, step)
	}

	if len(onsets) > len(offsets) {
		offsets = append(offsets, time[last])
		periods = append(periods, Period{
			Onset:           time[open],
			Offset:          time[last],
			OnsetIndex:      open,
			OffsetIndex:     last,
			SyntheticOnset:  open == 0 && !initialAwake,
			SyntheticOffset: true,
		})
	}

	return &Result{
		params:    m.params,
		time:      time,
		pressure:  pressure,
		upper:     upper,
		lower:     lower,
		circadian: signal,
		awake:     awake,
		onsets:    onsets,
		offsets:   offsets,
		periods:   periods,
	}, nil
}

func notify(observers []Observer, s Step) {
	for _, o := range observers {
		if o != nil {
			o.ObserveStep(s)
		}
	}
}
