package twoprocess

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned by Build when a parameter set cannot drive a simulation.
	ErrInvalidParameters = errors.New("twoprocess: invalid parameters")

	// ErrInvalidGrid is returned when the time grid is too short, non-finite or decreasing.
	ErrInvalidGrid = errors.New("twoprocess: invalid time grid")

	// ErrInvalidInitialState is returned for a non-finite or negative initial pressure.
	ErrInvalidInitialState = errors.New("twoprocess: invalid initial state")

	// ErrNegativeStep is returned by the homeostatic step functions for Δt < 0.
	ErrNegativeStep = errors.New("twoprocess: negative time step")
)

// RunError carries the step at which a run aborted.
type RunError struct {
	Index   int
	Time    float64
	Wrapped error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("step %d (t=%g): %v", e.Index, e.Time, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
