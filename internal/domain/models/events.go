package models

import "time"

const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)

// SimulationCompletedEvent is published after every run, successful or not.
type SimulationCompletedEvent struct {
	RunID      string    `json:"run_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Scenario   string    `json:"scenario"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Points     int       `json:"points"`
	Periods    int       `json:"periods"`
	TotalSleep float64   `json:"total_sleep_hours"`
	Cached     bool      `json:"cached"`
	Timestamp  time.Time `json:"timestamp"`
}

// StreamMessage is one websocket frame of a live run.
type StreamMessage struct {
	Type    string         `json:"type"` // step, summary or error
	Step    *StepMessage   `json:"step,omitempty"`
	Summary *SimulationRun `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// StepMessage mirrors one engine step.
type StepMessage struct {
	Index      int     `json:"i"`
	Time       float64 `json:"t"`
	Pressure   float64 `json:"h"`
	Upper      float64 `json:"upper"`
	Lower      float64 `json:"lower"`
	Circadian  float64 `json:"c"`
	Awake      bool    `json:"awake"`
	Transition string  `json:"transition,omitempty"`
}
