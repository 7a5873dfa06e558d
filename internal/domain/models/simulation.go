package models

import (
	"time"

	"SleepSim/internal/services/twoprocess"
)

// SimulationRequest asks for one run. Nil grid fields fall back to the configured defaults.
type SimulationRequest struct {
	RequestID         string             `json:"request_id,omitempty" validate:"omitempty,max=128"`
	Scenario          string             `json:"scenario" default:"baseline" validate:"max=64"`
	Overrides         map[string]float64 `json:"overrides,omitempty"`
	Start             *float64           `json:"start,omitempty"`
	End               *float64           `json:"end,omitempty"`
	Step              *float64           `json:"step,omitempty" validate:"omitempty,gt=0"`
	InitialPressure   *float64           `json:"initial_pressure,omitempty" default:"1" validate:"omitempty,gte=0"`
	InitialAwake      *bool              `json:"initial_awake,omitempty" default:"true"`
	SkipFirstWake     bool               `json:"skip_first_wake,omitempty"`
	IncludeTrajectory bool               `json:"include_trajectory,omitempty"`
}

// BatchRequest runs several simulations at once.
type BatchRequest struct {
	Requests []SimulationRequest `json:"requests" validate:"required,min=1,dive"`
}

// GridSpec is the uniform grid a run was stepped on.
type GridSpec struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Step   float64 `json:"step"`
	Points int     `json:"points"`
}

// Trajectory holds the per-step series of a run, index-aligned with Time.
type Trajectory struct {
	Time      []float64 `json:"time"`
	Pressure  []float64 `json:"pressure"`
	Upper     []float64 `json:"upper"`
	Lower     []float64 `json:"lower"`
	Circadian []float64 `json:"circadian"`
	Awake     []bool    `json:"awake"`
}

// SimulationRun is the stored and returned summary of one run.
type SimulationRun struct {
	ID              string                `json:"id"`
	RequestID       string                `json:"request_id,omitempty"`
	Scenario        string                `json:"scenario"`
	Parameters      twoprocess.Parameters `json:"parameters"`
	Grid            GridSpec              `json:"grid"`
	InitialPressure float64               `json:"initial_pressure"`
	InitialAwake    bool                  `json:"initial_awake"`
	Onsets          []float64             `json:"onsets"`
	Offsets         []float64             `json:"offsets"`
	Periods         []twoprocess.Period   `json:"periods"`
	TotalSleep      float64               `json:"total_sleep_hours"`
	SkipFirstWake   bool                  `json:"skip_first_wake,omitempty"`
	Cached          bool                  `json:"cached"`
	CreatedAt       time.Time             `json:"created_at"`
	Trajectory      *Trajectory           `json:"trajectory,omitempty"`
}

// ScenarioInfo describes a registered scenario and its resolved parameters.
type ScenarioInfo struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  twoprocess.Parameters `json:"parameters"`
}
