package service

import (
	"context"

	"SleepSim/internal/domain/models"
)

// StepSink receives the steps of a streamed run in order. Returning an error aborts the run.
type StepSink func(models.StepMessage) error

// Simulator runs two-process simulations on behalf of the transports (HTTP, websocket, Kafka).
type Simulator interface {
	Scenarios(ctx context.Context) ([]models.ScenarioInfo, error)
	Simulate(ctx context.Context, req models.SimulationRequest) (*models.SimulationRun, error)
	SimulateBatch(ctx context.Context, reqs []models.SimulationRequest) ([]*models.SimulationRun, error)
	Stream(ctx context.Context, req models.SimulationRequest, sink StepSink) (*models.SimulationRun, error)
	Get(ctx context.Context, id string) (*models.SimulationRun, error)
}
