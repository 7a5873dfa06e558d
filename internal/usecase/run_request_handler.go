package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"SleepSim/internal/domain/models"
	drepo "SleepSim/internal/domain/repository"
	"SleepSim/internal/domain/service"
	pkgkafka "SleepSim/pkg/kafka"
)

// RunRequestHandler consumes SimulationRequest messages and runs them.
type RunRequestHandler struct {
	topic   string
	sim     service.Simulator
	metrics drepo.Metrics
}

func NewRunRequestHandler(topic string, sim service.Simulator, metrics drepo.Metrics) *RunRequestHandler {
	return &RunRequestHandler{topic: topic, sim: sim, metrics: metrics}
}

func (h *RunRequestHandler) Topic() string { return h.topic }

// Handle runs one request. Malformed payloads and rejected requests are permanent failures
// so the consumer dead-letters them instead of retrying.
func (h *RunRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.SimulationRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("%w: decode request: %v", pkgkafka.ErrPermanent, err)
	}
	if _, err := h.sim.Simulate(ctx, req); err != nil {
		if IsRequestError(err) {
			return errors.Join(pkgkafka.ErrPermanent, err)
		}
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*RunRequestHandler)(nil)
