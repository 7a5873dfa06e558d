package repository

import (
	"context"
	"errors"

	"SleepSim/internal/domain/models"
)

var ErrRunNotFound = errors.New("run not found")

// RunStore persists run summaries, their periods and optionally their trajectories.
type RunStore interface {
	Init(ctx context.Context) error // ensure tables
	SaveRun(ctx context.Context, run *models.SimulationRun) error
	GetRun(ctx context.Context, id string) (*models.SimulationRun, error)
	Health(ctx context.Context) error
	Close() error
}

// RunPublisher announces finished runs.
type RunPublisher interface {
	PublishCompleted(ctx context.Context, ev *models.SimulationCompletedEvent) error
	Close() error
}

type Metrics interface {
	RecordRun(scenario, status string, seconds float64, points int)
	RecordTransition(kind string)
	RecordSleep(scenario string, hours float64)
	RecordError(kind string)
	RecordCache(hit bool)
	RecordLatency(op string, seconds float64)
	StreamOpened()
	StreamClosed()
}
