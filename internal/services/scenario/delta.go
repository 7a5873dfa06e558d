package scenario

import (
	"fmt"
	"sort"
	"strings"

	"SleepSim/internal/services/twoprocess"
)

// Delta replaces individual model parameters. Nil fields keep the base value.
type Delta struct {
	SleepDecayRate       *float64 `yaml:"sleep_decay_rate,omitempty" json:"sleep_decay_rate,omitempty"`
	WakeDecayRate        *float64 `yaml:"wake_decay_rate,omitempty" json:"wake_decay_rate,omitempty"`
	WakeBaselinePressure *float64 `yaml:"wake_baseline_pressure,omitempty" json:"wake_baseline_pressure,omitempty"`
	CircadianAmplitude   *float64 `yaml:"circadian_amplitude,omitempty" json:"circadian_amplitude,omitempty"`
	CircadianFrequency   *float64 `yaml:"circadian_frequency,omitempty" json:"circadian_frequency,omitempty"`
	CircadianPhaseShift  *float64 `yaml:"circadian_phase_shift,omitempty" json:"circadian_phase_shift,omitempty"`
	UpperBoundBaseline   *float64 `yaml:"upper_bound_baseline,omitempty" json:"upper_bound_baseline,omitempty"`
	LowerBoundBaseline   *float64 `yaml:"lower_bound_baseline,omitempty" json:"lower_bound_baseline,omitempty"`
	MaxSleepPressure     *float64 `yaml:"max_sleep_pressure,omitempty" json:"max_sleep_pressure,omitempty"`
}

// Float returns a pointer to v, for building a Delta literal.
func Float(v float64) *float64 { return &v }

type binding struct {
	name     string
	override **float64
	target   *float64
}

// bind pairs each delta field with its parameter, in declaration order.
func (d *Delta) bind(p *twoprocess.Parameters) []binding {
	return []binding{
		{"sleep_decay_rate", &d.SleepDecayRate, &p.SleepDecayRate},
		{"wake_decay_rate", &d.WakeDecayRate, &p.WakeDecayRate},
		{"wake_baseline_pressure", &d.WakeBaselinePressure, &p.WakeBaselinePressure},
		{"circadian_amplitude", &d.CircadianAmplitude, &p.CircadianAmplitude},
		{"circadian_frequency", &d.CircadianFrequency, &p.CircadianFrequency},
		{"circadian_phase_shift", &d.CircadianPhaseShift, &p.CircadianPhaseShift},
		{"upper_bound_baseline", &d.UpperBoundBaseline, &p.UpperBoundBaseline},
		{"lower_bound_baseline", &d.LowerBoundBaseline, &p.LowerBoundBaseline},
		{"max_sleep_pressure", &d.MaxSleepPressure, &p.MaxSleepPressure},
	}
}

// Apply returns base with every set field of d replaced.
func (d Delta) Apply(base twoprocess.Parameters) twoprocess.Parameters {
	out := base
	for _, b := range d.bind(&out) {
		if *b.override != nil {
			*b.target = **b.override
		}
	}
	return out
}

// Merge layers other on top of d. Fields set in other win.
func (d Delta) Merge(other Delta) Delta {
	out := d
	var scratch twoprocess.Parameters
	mine, theirs := out.bind(&scratch), other.bind(&scratch)
	for i := range theirs {
		if *theirs[i].override != nil {
			v := **theirs[i].override
			*mine[i].override = &v
		}
	}
	return out
}

// IsZero reports whether d changes nothing.
func (d Delta) IsZero() bool {
	var scratch twoprocess.Parameters
	for _, b := range d.bind(&scratch) {
		if *b.override != nil {
			return false
		}
	}
	return true
}

// DeltaFromMap builds a Delta from snake_case parameter names, as found in config files.
func DeltaFromMap(values map[string]float64) (Delta, error) {
	var d Delta
	var scratch twoprocess.Parameters
	byName := make(map[string]**float64)
	for _, b := range d.bind(&scratch) {
		byName[b.name] = b.override
	}
	var unknown []string
	for name, v := range values {
		ptr, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		*ptr = Float(v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Delta{}, fmt.Errorf("unknown parameter(s): %s", strings.Join(unknown, ", "))
	}
	return d, nil
}
