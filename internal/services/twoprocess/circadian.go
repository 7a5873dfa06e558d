package twoprocess

import "math"

// Circadian is process C: a sinusoid that shifts both pressure thresholds by the same amount.
type Circadian struct {
	Amplitude     float64
	Frequency     float64
	PhaseShift    float64
	UpperBaseline float64
	LowerBaseline float64
}

// NewCircadian extracts the oscillator from a parameter set.
func NewCircadian(p Parameters) Circadian {
	return Circadian{
		Amplitude:     p.CircadianAmplitude,
		Frequency:     p.CircadianFrequency,
		PhaseShift:    p.CircadianPhaseShift,
		UpperBaseline: p.UpperBoundBaseline,
		LowerBaseline: p.LowerBoundBaseline,
	}
}

// Signal returns amplitude·sin(frequency·t − phase). The amplitude is applied here only;
// Upper and Lower add the signal without scaling it again.
func (c Circadian) Signal(t float64) float64 {
	return c.Amplitude * math.Sin(c.Frequency*t-c.PhaseShift)
}

// Upper is the sleep-onset threshold at t.
func (c Circadian) Upper(t float64) float64 {
	return c.UpperBaseline + c.Signal(t)
}

// Lower is the wake-onset threshold at t.
func (c Circadian) Lower(t float64) float64 {
	return c.LowerBaseline + c.Signal(t)
}

// Thresholds evaluates the oscillator over a whole grid.
func (c Circadian) Thresholds(grid []float64) (signal, upper, lower []float64) {
	signal = make([]float64, len(grid))
	upper = make([]float64, len(grid))
	lower = make([]float64, len(grid))
	for i, t := range grid {
		s := c.Signal(t)
		signal[i] = s
		upper[i] = c.UpperBaseline + s
		lower[i] = c.LowerBaseline + s
	}
	return signal, upper, lower
}
