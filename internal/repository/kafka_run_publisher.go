package repository

import (
	"context"

	"SleepSim/internal/domain/models"
	domrepo "SleepSim/internal/domain/repository"
	pkgkafka "SleepSim/pkg/kafka"
)

// eventProducer is the part of *pkgkafka.Producer the publisher needs.
type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error
	Close() error
}

// KafkaRunPublisher implements RunPublisher for Kafka.
type KafkaRunPublisher struct {
	producer eventProducer
	topic    string
}

var _ domrepo.RunPublisher = (*KafkaRunPublisher)(nil)

// NewKafkaRunPublisher creates a publisher that owns producer.
func NewKafkaRunPublisher(producer *pkgkafka.Producer, topic string) *KafkaRunPublisher {
	return &KafkaRunPublisher{producer: producer, topic: topic}
}

// PublishCompleted keys events by run id, or by request id for runs that never started, so
// every event of a run lands on one partition.
func (p *KafkaRunPublisher) PublishCompleted(ctx context.Context, ev *models.SimulationCompletedEvent) error {
	key := ev.RunID
	if key == "" {
		key = ev.RequestID
	}
	headers := []pkgkafka.Header{{Key: "status", Value: ev.Status}}
	if ev.RequestID != "" {
		headers = append(headers, pkgkafka.Header{Key: "request_id", Value: ev.RequestID})
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), ev, headers...)
}

func (p *KafkaRunPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
