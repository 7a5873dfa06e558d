package twoprocess

// Transition classifies what happened at a step.
type Transition int

const (
	NoTransition Transition = iota
	SleepOnset
	WakeOnset
)

func (t Transition) String() string {
	switch t {
	case SleepOnset:
		return "sleep_onset"
	case WakeOnset:
		return "wake_onset"
	default:
		return "none"
	}
}

// Step is the state of the run at one grid index, as seen by observers.
type Step struct {
	Index      int
	Time       float64
	Delta      float64
	Pressure   float64
	Upper      float64
	Lower      float64
	Circadian  float64
	Awake      bool
	Transition Transition
	// Recorded is false for a transition that changed state without being added to the
	// onset/offset lists (a sleep onset at the final index).
	Recorded bool
}

// Observer receives every step of a run, in order, on the caller's goroutine.
type Observer interface {
	ObserveStep(Step)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Step)

func (f ObserverFunc) ObserveStep(s Step) { f(s) }
