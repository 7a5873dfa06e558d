package twoprocess

import (
	"fmt"
	"math"
)

// Homeostat is process S: exponential relaxation of sleep pressure, toward the wake
// baseline while awake and toward zero while asleep.
type Homeostat struct {
	SleepDecayRate       float64
	WakeDecayRate        float64
	WakeBaselinePressure float64
}

// NewHomeostat extracts the homeostatic process from a parameter set.
func NewHomeostat(p Parameters) Homeostat {
	return Homeostat{
		SleepDecayRate:       p.SleepDecayRate,
		WakeDecayRate:        p.WakeDecayRate,
		WakeBaselinePressure: p.WakeBaselinePressure,
	}
}

// Awake advances pressure h0 by dt hours of wakefulness.
func (h Homeostat) Awake(h0, dt float64) (float64, error) {
	if err := checkStep(dt); err != nil {
		return 0, err
	}
	if dt == 0 {
		return h0, nil
	}
	b := h.WakeBaselinePressure
	return b + (h0-b)*math.Exp(-dt/h.WakeDecayRate), nil
}

// Asleep advances pressure h0 by dt hours of sleep.
func (h Homeostat) Asleep(h0, dt float64) (float64, error) {
	if err := checkStep(dt); err != nil {
		return 0, err
	}
	if dt == 0 {
		return h0, nil
	}
	return h0 * math.Exp(-dt/h.SleepDecayRate), nil
}

// Step dispatches on the wake state.
func (h Homeostat) Step(h0, dt float64, awake bool) (float64, error) {
	if awake {
		return h.Awake(h0, dt)
	}
	return h.Asleep(h0, dt)
}

func checkStep(dt float64) error {
	if math.IsNaN(dt) || dt < 0 {
		return fmt.Errorf("%w: dt=%g", ErrNegativeStep, dt)
	}
	return nil
}
