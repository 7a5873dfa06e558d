package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sleepsim"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	gridPoints    prometheus.Histogram
	transitions   *prometheus.CounterVec
	sleepHours    *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	streams       prometheus.Gauge
}

// New creates a recorder registered on reg. Pass prometheus.DefaultRegisterer to expose the
// series on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of simulation runs by scenario and outcome",
			},
			[]string{"scenario", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time spent stepping a simulation",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"scenario"},
		),
		gridPoints: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grid_points",
				Help:      "Number of time points per run",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Threshold crossings observed while stepping",
			},
			[]string{"kind"},
		),
		sleepHours: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sleep_hours",
				Help:      "Total simulated sleep per run",
				Buckets:   prometheus.LinearBuckets(0, 4, 12),
			},
			[]string{"scenario"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		streams: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_streams",
				Help:      "Open websocket simulation streams",
			},
		),
	}
}

// RecordRun records one finished or failed run.
func (r *Recorder) RecordRun(scenario, status string, seconds float64, points int) {
	r.runsTotal.WithLabelValues(scenario, status).Inc()
	if status == "ok" {
		r.runDuration.WithLabelValues(scenario).Observe(seconds)
		r.gridPoints.Observe(float64(points))
	}
}

// RecordTransition counts a sleep or wake onset.
func (r *Recorder) RecordTransition(kind string) {
	r.transitions.WithLabelValues(kind).Inc()
}

// RecordSleep records the total sleep of a run in hours.
func (r *Recorder) RecordSleep(scenario string, hours float64) {
	r.sleepHours.WithLabelValues(scenario).Observe(hours)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCache records a cache hit or miss.
func (r *Recorder) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// StreamOpened and StreamClosed track live websocket streams.
func (r *Recorder) StreamOpened() { r.streams.Inc() }
func (r *Recorder) StreamClosed() { r.streams.Dec() }
