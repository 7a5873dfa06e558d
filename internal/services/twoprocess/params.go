package twoprocess

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Parameters configures one simulation run. Rates are time constants in hours.
type Parameters struct {
	SleepDecayRate       float64 `yaml:"sleep_decay_rate" json:"sleep_decay_rate" validate:"gt=0"`
	WakeDecayRate        float64 `yaml:"wake_decay_rate" json:"wake_decay_rate" validate:"gt=0"`
	WakeBaselinePressure float64 `yaml:"wake_baseline_pressure" json:"wake_baseline_pressure"`
	CircadianAmplitude   float64 `yaml:"circadian_amplitude" json:"circadian_amplitude"`
	CircadianFrequency   float64 `yaml:"circadian_frequency" json:"circadian_frequency"`
	CircadianPhaseShift  float64 `yaml:"circadian_phase_shift" json:"circadian_phase_shift"`
	UpperBoundBaseline   float64 `yaml:"upper_bound_baseline" json:"upper_bound_baseline" validate:"gtfield=LowerBoundBaseline"`
	LowerBoundBaseline   float64 `yaml:"lower_bound_baseline" json:"lower_bound_baseline"`
	MaxSleepPressure     float64 `yaml:"max_sleep_pressure" json:"max_sleep_pressure" validate:"gt=0"`
}

// DefaultParameters returns the reference parameter set (24h period, no phase shift).
func DefaultParameters() Parameters {
	return Parameters{
		SleepDecayRate:       4.2,
		WakeDecayRate:        18.2,
		WakeBaselinePressure: 1,
		CircadianAmplitude:   0.3,
		CircadianFrequency:   2 * math.Pi / 24,
		CircadianPhaseShift:  0,
		UpperBoundBaseline:   0.6,
		LowerBoundBaseline:   0.17,
		MaxSleepPressure:     1,
	}
}

var validate = newValidator()

// newValidator reports fields by their yaml names, the names used in config and overrides.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(yamlName)
	return v
}

func yamlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Validate reports every violated constraint, wrapped in ErrInvalidParameters.
func (p Parameters) Validate() error {
	var problems []string
	for _, f := range p.fields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			problems = append(problems, f.name+" must be finite")
		}
	}
	if len(problems) == 0 {
		if err := validate.Struct(p); err != nil {
			var ves validator.ValidationErrors
			if !errors.As(err, &ves) {
				return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
			}
			for _, fe := range ves {
				problems = append(problems, describe(fe))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(problems, "; "))
	}
	return nil
}

type namedValue struct {
	name  string
	value float64
}

func (p Parameters) fields() []namedValue {
	return []namedValue{
		{"sleep_decay_rate", p.SleepDecayRate},
		{"wake_decay_rate", p.WakeDecayRate},
		{"wake_baseline_pressure", p.WakeBaselinePressure},
		{"circadian_amplitude", p.CircadianAmplitude},
		{"circadian_frequency", p.CircadianFrequency},
		{"circadian_phase_shift", p.CircadianPhaseShift},
		{"upper_bound_baseline", p.UpperBoundBaseline},
		{"lower_bound_baseline", p.LowerBoundBaseline},
		{"max_sleep_pressure", p.MaxSleepPressure},
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gtfield":
		other := fe.Param()
		if f, ok := reflect.TypeOf(Parameters{}).FieldByName(other); ok {
			other = yamlName(f)
		}
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), other)
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
