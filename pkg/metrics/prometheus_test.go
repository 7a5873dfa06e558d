package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRun("baseline", "ok", 0.002, 49)
	r.RecordRun("baseline", "ok", 0.003, 49)
	r.RecordRun("jet_lag", "error", 0, 0)
	r.RecordTransition("sleep_onset")
	r.RecordCache(true)
	r.RecordCache(false)
	r.RecordCache(false)
	r.RecordError("publish")
	r.StreamOpened()
	r.StreamOpened()
	r.StreamClosed()

	if got := testutil.ToFloat64(r.runsTotal.WithLabelValues("baseline", "ok")); got != 2 {
		t.Fatalf("baseline ok runs: got %v", got)
	}
	if got := testutil.ToFloat64(r.runsTotal.WithLabelValues("jet_lag", "error")); got != 1 {
		t.Fatalf("jet_lag error runs: got %v", got)
	}
	if got := testutil.ToFloat64(r.cacheRequests.WithLabelValues("miss")); got != 2 {
		t.Fatalf("cache misses: got %v", got)
	}
	if got := testutil.ToFloat64(r.streams); got != 1 {
		t.Fatalf("active streams: got %v", got)
	}
	if n := testutil.CollectAndCount(r.gridPoints); n != 1 {
		t.Fatalf("grid histogram series: got %d", n)
	}
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	// two recorders must not collide when each has its own registry
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
