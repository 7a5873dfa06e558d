package twoprocess

// Period is one sleep episode. A synthetic onset marks a run that started asleep, a
// synthetic offset a run that ended asleep; neither is an observed transition.
type Period struct {
	Onset           float64 `json:"onset"`
	Offset          float64 `json:"offset"`
	OnsetIndex      int     `json:"onset_index"`
	OffsetIndex     int     `json:"offset_index"`
	SyntheticOnset  bool    `json:"synthetic_onset,omitempty"`
	SyntheticOffset bool    `json:"synthetic_offset,omitempty"`
}

// Duration in hours.
func (p Period) Duration() float64 { return p.Offset - p.Onset }

// Result is the output of one run. All slices are index-aligned with the time grid.
// A Result is never modified after Run returns; accessors hand out copies.
type Result struct {
	params    Parameters
	time      []float64
	pressure  []float64
	upper     []float64
	lower     []float64
	circadian []float64
	awake     []bool
	onsets    []float64
	offsets   []float64
	periods   []Period
}

func (r *Result) Parameters() Parameters { return r.params }
func (r *Result) Len() int { return len(r.time) }
func (r *Result) Time() []float64 { return cloneFloats(r.time) }
func (r *Result) Pressure() []float64 { return cloneFloats(r.pressure) }
func (r *Result) Upper() []float64 { return cloneFloats(r.upper) }
func (r *Result) Lower() []float64 { return cloneFloats(r.lower) }
func (r *Result) Circadian() []float64 { return cloneFloats(r.circadian) }

// Awake is the wake-state trajectory, true for awake.
func (r *Result) Awake() []bool {
	out := make([]bool, len(r.awake))
	copy(out, r.awake)
	return out
}

// Onsets are the sleep-onset timestamps, including a synthetic first-grid onset when the
// run started asleep.
func (r *Result) Onsets() []float64 { return cloneFloats(r.onsets) }

// Offsets are the sleep-offset timestamps. When the run ends asleep the last entry is the
// final grid timestamp, appended only so onsets and offsets pair up; it is not a wake event.
func (r *Result) Offsets() []float64 { return cloneFloats(r.offsets) }

// Periods are the (onset, offset) pairs recorded while stepping.
func (r *Result) Periods() []Period {
	out := make([]Period, len(r.periods))
	copy(out, r.periods)
	return out
}

// TotalSleep sums the duration of all periods, synthetic boundaries included.
func (r *Result) TotalSleep() float64 {
	var total float64
	for _, p := range r.periods {
		total += p.Duration()
	}
	return total
}

// DerivePeriods rebuilds the sleep periods from the wake-state trajectory alone, applying
// the same boundary rules as the engine. It always agrees with Periods.
func (r *Result) DerivePeriods() []Period {
	return derivePeriods(r.time, r.awake)
}

func derivePeriods(grid []float64, awake []bool) []Period {
	n := len(awake)
	if n == 0 {
		return nil
	}
	periods := []Period{}
	open := -1
	if !awake[0] {
		open = 0
	}
	for i := 1; i < n; i++ {
		switch {
		case awake[i-1] && !awake[i]:
			if i < n-1 {
				open = i
			}
		case !awake[i-1] && awake[i]:
			if open >= 0 {
				periods = append(periods, Period{
					Onset:          grid[open],
					Offset:         grid[i],
					OnsetIndex:     open,
					OffsetIndex:    i,
					SyntheticOnset: open == 0 && !awake[0],
				})
				open = -1
			}
		}
	}
	if open >= 0 {
		periods = append(periods, Period{
			Onset:           grid[open],
			Offset:          grid[n-1],
			OnsetIndex:      open,
			OffsetIndex:     n - 1,
			SyntheticOnset:  open == 0 && !awake[0],
			SyntheticOffset: true,
		})
	}
	return periods
}

// FirstWakeIndex is the first grid index after the start at which the run is awake, or -1
// if it never is.
func (r *Result) FirstWakeIndex() int { return firstWakeIndex(r.awake) }

// PeriodsAfterFirstWake is Periods filtered by FilterFirstWake.
func (r *Result) PeriodsAfterFirstWake() []Period {
	return FilterFirstWake(r.periods, r.awake)
}

// FilterFirstWake drops every period that begins before the first index i >= 1 at which
// awake[i] holds. A run that starts awake keeps all of its periods; a run that starts
// asleep loses the sleep truncated by the initial conditions. It is a presentation filter
// and plays no part in the simulation. Without any waking index the result is empty.
func FilterFirstWake(periods []Period, awake []bool) []Period {
	out := []Period{}
	first := firstWakeIndex(awake)
	if first < 0 {
		return out
	}
	for _, p := range periods {
		if p.OnsetIndex >= first {
			out = append(out, p)
		}
	}
	return out
}

func firstWakeIndex(awake []bool) int {
	for i := 1; i < len(awake); i++ {
		if awake[i] {
			return i
		}
	}
	return -1
}

func cloneFloats(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}
