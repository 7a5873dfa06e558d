package twoprocess

import (
	"math"
	"testing"
)

func TestCircadianSpreadIsConstant(t *testing.T) {
	params := []Parameters{
		DefaultParameters(),
		{CircadianAmplitude: 1.7, CircadianFrequency: 0.9, CircadianPhaseShift: 2, UpperBoundBaseline: 3, LowerBoundBaseline: -1},
		{CircadianAmplitude: 0, CircadianFrequency: 1, UpperBoundBaseline: 0.5, LowerBoundBaseline: 0.4},
	}
	for _, p := range params {
		c := NewCircadian(p)
		want := p.UpperBoundBaseline - p.LowerBoundBaseline
		for _, ts := range []float64{-100, -3.3, 0, 0.5, 6, 12.25, 24, 1e4} {
			got := c.Upper(ts) - c.Lower(ts)
			if math.Abs(got-want) > 1e-12 {
				t.Fatalf("spread at t=%g: got %g want %g", ts, got, want)
			}
		}
	}
}

func TestCircadianSignalScaledOnce(t *testing.T) {
	c := NewCircadian(DefaultParameters())
	if s := c.Signal(0); math.Abs(s) > 1e-15 {
		t.Fatalf("signal at 0: got %g", s)
	}
	// quarter period of a 24h cycle
	if s := c.Signal(6); math.Abs(s-0.3) > 1e-12 {
		t.Fatalf("signal at 6h: got %g want 0.3", s)
	}
	if u := c.Upper(6); math.Abs(u-0.9) > 1e-12 {
		t.Fatalf("upper at 6h: got %g want 0.9", u)
	}
	if l := c.Lower(18); math.Abs(l-(0.17-0.3)) > 1e-12 {
		t.Fatalf("lower at 18h: got %g want %g", l, 0.17-0.3)
	}
}

func TestCircadianThresholdsMatchPointwise(t *testing.T) {
	p := DefaultParameters()
	p.CircadianPhaseShift = 1.1
	c := NewCircadian(p)
	grid := []float64{0, 0.5, 0.5, 7, 19.75, 30}
	signal, upper, lower := c.Thresholds(grid)
	if len(signal) != len(grid) || len(upper) != len(grid) || len(lower) != len(grid) {
		t.Fatalf("length mismatch")
	}
	for i, ts := range grid {
		if signal[i] != c.Signal(ts) || upper[i] != c.Upper(ts) || lower[i] != c.Lower(ts) {
			t.Fatalf("index %d: vectorised values differ from pointwise", i)
		}
	}
}
