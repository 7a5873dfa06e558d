package twoprocess

import (
	"fmt"
	"math"
)

// gridTolerance absorbs float accumulation when the end of a uniform grid is not an exact
// multiple of the step.
const gridTolerance = 1e-9

// UniformGrid returns start, start+step, ... up to and including end.
func UniformGrid(start, end, step float64) ([]float64, error) {
	switch {
	case math.IsNaN(start) || math.IsInf(start, 0) || math.IsNaN(end) || math.IsInf(end, 0):
		return nil, fmt.Errorf("%w: bounds must be finite", ErrInvalidGrid)
	case math.IsNaN(step) || step <= 0:
		return nil, fmt.Errorf("%w: step must be positive, got %g", ErrInvalidGrid, step)
	case end <= start:
		return nil, fmt.Errorf("%w: end %g must be after start %g", ErrInvalidGrid, end, start)
	}
	n := int(math.Floor((end-start)/step+gridTolerance)) + 1
	grid := make([]float64, n)
	for i := range grid {
		// multiply instead of accumulating so long grids do not drift
		grid[i] = start + float64(i)*step
	}
	return grid, nil
}

// ValidateGrid checks the run precondition: at least two finite, non-decreasing points.
func ValidateGrid(grid []float64) error {
	if len(grid) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidGrid, len(grid))
	}
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: non-finite timestamp at index %d", ErrInvalidGrid, i)
		}
		if i > 0 && t < grid[i-1] {
			return fmt.Errorf("%w: timestamp decreases at index %d (%g < %g)", ErrInvalidGrid, i, t, grid[i-1])
		}
	}
	return nil
}
