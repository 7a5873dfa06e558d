package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeCommitter struct{ committed []kafka.Message }

func (c *fakeCommitter) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	c.committed = append(c.committed, msgs...)
	return nil
}

type scriptedHandler struct {
	failures int
	err      error
	calls    int
}

func (h *scriptedHandler) Topic() string { return "simulation.requests" }

func (h *scriptedHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return h.err
	}
	return nil
}

func newTestConsumer(retries int) *Consumer {
	return newConsumer(&ConsumerConfig{
		RetryMax:   retries,
		BackoffMin: time.Millisecond,
		BackoffMax: time.Millisecond,
		DLQTopic:   "simulation.requests.dlq",
		BufferSize: 1,
		Registerer: prometheus.NewRegistry(),
	})
}

func TestProcessRetriesThenCommits(t *testing.T) {
	c := newTestConsumer(3)
	h := &scriptedHandler{failures: 2, err: errors.New("transient")}
	ack := &fakeCommitter{}
	dlq := &fakeWriter{}
	c.dlq = dlq

	var errorsSeen int
	c.WithConsumerHook(NewHookChain(CountingHook(func(string) { errorsSeen++ })))
	c.process(h, &message{topic: h.Topic(), data: []byte(`{}`)}, ack)

	if h.calls != 3 {
		t.Fatalf("calls: got %d want 3", h.calls)
	}
	if len(ack.committed) != 1 || len(dlq.msgs) != 0 {
		t.Fatalf("committed=%d dlq=%d", len(ack.committed), len(dlq.msgs))
	}
	if errorsSeen != 2 {
		t.Fatalf("error hook: got %d want 2", errorsSeen)
	}
}

func TestProcessPermanentErrorGoesToDLQ(t *testing.T) {
	c := newTestConsumer(5)
	h := &scriptedHandler{failures: 100, err: errors.Join(ErrPermanent, errors.New("bad json"))}
	ack := &fakeCommitter{}
	dlq := &fakeWriter{}
	c.dlq = dlq

	c.process(h, &message{topic: h.Topic(), data: []byte(`{`), km: kafka.Message{Key: []byte("k")}}, ack)

	if h.calls != 1 {
		t.Fatalf("permanent errors must not be retried, calls=%d", h.calls)
	}
	if len(dlq.msgs) != 1 || dlq.msgs[0].Topic != "simulation.requests.dlq" || string(dlq.msgs[0].Value) != "{" {
		t.Fatalf("dlq: %+v", dlq.msgs)
	}
	if len(ack.committed) != 1 {
		t.Fatalf("dead-lettered message should be committed")
	}
}

func TestProcessWithoutDLQLeavesOffset(t *testing.T) {
	c := newTestConsumer(0)
	h := &scriptedHandler{failures: 1, err: errors.New("down")}
	ack := &fakeCommitter{}
	c.process(h, &message{topic: h.Topic()}, ack)
	if len(ack.committed) != 0 {
		t.Fatalf("failed message without DLQ must not be committed")
	}
}

func TestHookChainRecoversPanics(t *testing.T) {
	var after []string
	chain := NewHookChain(
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { after = append(after, "first") }},
		HookFuncs{
			Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
				panic("bad hook")
			},
			After: func(context.Context, string, kafka.Message, []byte, error) { after = append(after, "second") },
		},
	)
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_PANIC" {
		t.Fatalf("expected panic hook error, got %v", err)
	}
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	if len(after) != 2 || after[0] != "second" || after[1] != "first" {
		t.Fatalf("after hooks should run in reverse: %v", after)
	}
}

func TestTraceHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := TraceHook().BeforeHandle(context.Background(), "t", km, nil)
	if err != nil || TraceID(ctx) != "abc" {
		t.Fatalf("trace id: %q %v", TraceID(ctx), err)
	}
	if _, ok := ctx.Value(CtxStartTime).(time.Time); !ok {
		t.Fatalf("start time missing")
	}
}

func TestProducerPublishEncodes(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, comp: "none"}
	err := p.Publish(context.Background(), "simulation.completed", []byte("run-1"),
		map[string]string{"status": "ok"}, Header{Key: "trace_id", Value: "t1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages: %d", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "simulation.completed" || string(m.Key) != "run-1" || string(m.Value) != `{"status":"ok"}` {
		t.Fatalf("message: %+v", m)
	}
	if len(m.Headers) != 1 || m.Headers[0].Key != "trace_id" {
		t.Fatalf("headers: %+v", m.Headers)
	}

	w.err = errors.New("broker down")
	if err := p.Publish(context.Background(), "simulation.completed", nil, "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBackoffWithinBounds(t *testing.T) {
	for attempt := 1; attempt < 70; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, attempt)
		if d <= 0 || d > 200*time.Millisecond {
			t.Fatalf("attempt %d: %v", attempt, d)
		}
	}
}
