package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"SleepSim/internal/domain/models"
	"SleepSim/internal/services/twoprocess"
	pkgkafka "SleepSim/pkg/kafka"
)

type published struct {
	topic   string
	key     string
	value   interface{}
	headers []pkgkafka.Header
}

type fakeProducer struct {
	msgs   []published
	closed bool
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error {
	p.msgs = append(p.msgs, published{topic: topic, key: string(key), value: value, headers: headers})
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaRunPublisherKeys(t *testing.T) {
	fp := &fakeProducer{}
	pub := &KafkaRunPublisher{producer: fp, topic: "simulation.completed"}
	ctx := context.Background()

	if err := pub.PublishCompleted(ctx, &models.SimulationCompletedEvent{RunID: "run-1", Status: models.RunStatusOK}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.PublishCompleted(ctx, &models.SimulationCompletedEvent{RequestID: "req-9", Status: models.RunStatusFailed}); err != nil {
		t.Fatalf("publish failed event: %v", err)
	}

	if fp.msgs[0].topic != "simulation.completed" || fp.msgs[0].key != "run-1" || len(fp.msgs[0].headers) != 1 {
		t.Fatalf("ok event: %+v", fp.msgs[0])
	}
	if fp.msgs[1].key != "req-9" || len(fp.msgs[1].headers) != 2 || fp.msgs[1].headers[1].Value != "req-9" {
		t.Fatalf("failed event: %+v", fp.msgs[1])
	}
	if _, ok := fp.msgs[0].value.(*models.SimulationCompletedEvent); !ok {
		t.Fatalf("value should be the event itself")
	}
	if err := pub.Close(); err != nil || !fp.closed {
		t.Fatalf("close: %v", err)
	}
}

func sampleRun() *models.SimulationRun {
	return &models.SimulationRun{
		ID:         "run-1",
		Scenario:   "baseline",
		Parameters: twoprocess.DefaultParameters(),
		Grid:       models.GridSpec{Start: 0, End: 3, Step: 1, Points: 4},
		Periods: []twoprocess.Period{
			{Onset: 1, Offset: 2, OnsetIndex: 1, OffsetIndex: 2},
			{Onset: 2.5, Offset: 3, OnsetIndex: 2, OffsetIndex: 3, SyntheticOffset: true},
		},
		CreatedAt: time.Unix(0, 0).UTC(),
		Trajectory: &models.Trajectory{
			Time:      []float64{0, 1, 2, 3},
			Pressure:  []float64{1, 0.9, 0.8, 0.7},
			Upper:     []float64{0.6, 0.6, 0.6, 0.6},
			Lower:     []float64{0.2, 0.2, 0.2, 0.2},
			Circadian: []float64{0, 0, 0, 0},
			Awake:     []bool{true, false, true, false},
		},
	}
}

func TestRunRows(t *testing.T) {
	run := sampleRun()
	row, err := runRow(run)
	if err != nil {
		t.Fatalf("run row: %v", err)
	}
	if len(row) != 15 {
		t.Fatalf("run row has %d columns", len(row))
	}
	if params, _ := row[4].(string); !strings.Contains(params, `"sleep_decay_rate":4.2`) {
		t.Fatalf("parameters column: %v", row[4])
	}
	if onsets, ok := row[12].([]float64); !ok || onsets == nil {
		t.Fatalf("nil onsets must be stored as an empty array: %#v", row[12])
	}

	periods := periodRows(run)
	if len(periods) != 2 || periods[1][1] != uint32(1) || periods[1][7] != true {
		t.Fatalf("period rows: %v", periods)
	}
	traj := trajectoryRows(run)
	if len(traj) != 4 || traj[3][2] != 3.0 || traj[3][7] != false {
		t.Fatalf("trajectory rows: %v", traj)
	}
}

func TestSchemaUsesDatabase(t *testing.T) {
	stmts := schema("sims")
	if len(stmts) != 4 {
		t.Fatalf("got %d statements", len(stmts))
	}
	for _, s := range stmts[1:] {
		if !strings.Contains(s, "sims.") {
			t.Fatalf("statement without database: %s", s)
		}
	}
}
