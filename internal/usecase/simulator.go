package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"SleepSim/internal/domain/models"
	drepo "SleepSim/internal/domain/repository"
	"SleepSim/internal/domain/service"
	"SleepSim/internal/services/scenario"
	"SleepSim/internal/services/twoprocess"
	"SleepSim/pkg/cache"
	applogger "SleepSim/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidRequest = errors.New("invalid simulation request")
	ErrGridTooLarge   = errors.New("grid too large")
	ErrBatchTooLarge  = errors.New("batch too large")
)

// GridDefaults fills grid fields a request leaves out and bounds the grid size.
type GridDefaults struct {
	Start     float64
	End       float64
	Step      float64
	MaxPoints int
}

// SimulatorOption configures Simulator.
type SimulatorOption func(*Simulator)

// WithRunStore persists every computed run.
func WithRunStore(store drepo.RunStore) SimulatorOption {
	return func(s *Simulator) { s.store = store }
}

// WithPublisher announces every run, failed ones included.
func WithPublisher(pub drepo.RunPublisher) SimulatorOption {
	return func(s *Simulator) { s.pub = pub }
}

// WithCache reuses results of identical requests for ttl.
func WithCache(c cache.Service, ttl time.Duration) SimulatorOption {
	return func(s *Simulator) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithGridDefaults sets the grid used for missing request fields.
func WithGridDefaults(g GridDefaults) SimulatorOption {
	return func(s *Simulator) { s.grid = g }
}

// WithBatchLimits sets the batch worker count and the largest accepted batch.
func WithBatchLimits(workers, maxBatch int) SimulatorOption {
	return func(s *Simulator) {
		if workers > 0 {
			s.workers = workers
		}
		if maxBatch > 0 {
			s.maxBatch = maxBatch
		}
	}
}

// Simulator is the simulation use case shared by the HTTP, websocket and Kafka transports.
type Simulator struct {
	registry *scenario.Registry
	metrics  drepo.Metrics
	log      *applogger.Logger
	store    drepo.RunStore
	pub      drepo.RunPublisher
	cache    cache.Service
	cacheTTL time.Duration
	grid     GridDefaults
	workers  int
	maxBatch int
	now      func() time.Time
	validate *validator.Validate
}

var _ service.Simulator = (*Simulator)(nil)

func NewSimulator(registry *scenario.Registry, metrics drepo.Metrics, log *applogger.Logger, opts ...SimulatorOption) *Simulator {
	if log == nil {
		log = applogger.Nop()
	}
	s := &Simulator{
		registry: registry,
		metrics:  metrics,
		log:      log.Component("simulator"),
		grid:     GridDefaults{Start: 0, End: 48, Step: 0.1, MaxPoints: 200000},
		workers:  4,
		maxBatch: 32,
		now:      time.Now,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// prepared is a request resolved into everything a run needs.
type prepared struct {
	req      models.SimulationRequest
	scenario string
	params   twoprocess.Parameters
	model    *twoprocess.Model
	grid     []float64
	spec     models.GridSpec
	h0       float64
	awake    bool
}

func (s *Simulator) prepare(req models.SimulationRequest) (*prepared, error) {
	if err := defaults.Set(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	delta, err := scenario.DeltaFromMap(req.Overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	params, err := s.registry.ResolveWith(req.Scenario, delta)
	if err != nil {
		return nil, err
	}
	model, err := twoprocess.Build(params)
	if err != nil {
		return nil, err
	}

	spec := models.GridSpec{
		Start: valueOr(req.Start, s.grid.Start),
		End:   valueOr(req.End, s.grid.End),
		Step:  valueOr(req.Step, s.grid.Step),
	}
	if s.grid.MaxPoints > 0 && spec.Step > 0 && spec.End > spec.Start {
		if n := (spec.End-spec.Start)/spec.Step + 1; n > float64(s.grid.MaxPoints) {
			return nil, fmt.Errorf("%w: %.0f points exceeds %d", ErrGridTooLarge, math.Floor(n), s.grid.MaxPoints)
		}
	}
	grid, err := twoprocess.UniformGrid(spec.Start, spec.End, spec.Step)
	if err != nil {
		return nil, err
	}
	spec.Points = len(grid)

	return &prepared{
		req:      req,
		scenario: req.Scenario,
		params:   params,
		model:    model,
		grid:     grid,
		spec:     spec,
		h0:       *req.InitialPressure,
		awake:    *req.InitialAwake,
	}, nil
}

// cacheKey identifies a run by everything that shapes its output.
func (p *prepared) cacheKey() string {
	b, _ := json.Marshal(struct {
		Params     twoprocess.Parameters `json:"p"`
		Grid       models.GridSpec       `json:"g"`
		H0         float64               `json:"h0"`
		Awake      bool                  `json:"a"`
		Skip       bool                  `json:"s"`
		Trajectory bool                  `json:"t"`
	}{p.params, p.spec, p.h0, p.awake, p.req.SkipFirstWake, p.req.IncludeTrajectory})
	return cache.GenerateKey("sim", cache.HashKey(p.scenario, string(b)))
}

// Scenarios lists every registered scenario with its resolved parameters.
func (s *Simulator) Scenarios(ctx context.Context) ([]models.ScenarioInfo, error) {
	names := s.registry.Names()
	out := make([]models.ScenarioInfo, 0, len(names))
	for _, name := range names {
		sc, _ := s.registry.Get(name)
		params, err := s.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ScenarioInfo{Name: name, Description: sc.Description, Parameters: params})
	}
	return out, nil
}

// Simulate runs one request. Storage, publishing and caching happen after the result is
// computed; their failures are logged and counted but never fail the run.
func (s *Simulator) Simulate(ctx context.Context, req models.SimulationRequest) (*models.SimulationRun, error) {
	start := s.now()
	p, err := s.prepare(req)
	if err != nil {
		s.fail(ctx, req, err, start)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.cacheKey()
	if run, ok := s.lookup(ctx, key); ok {
		run.RequestID = req.RequestID
		s.metrics.RecordRun(p.scenario, models.RunStatusOK, s.now().Sub(start).Seconds(), run.Grid.Points)
		s.announce(ctx, run)
		return run, nil
	}

	run, err := s.execute(p, s.observers(p)...)
	if err != nil {
		s.fail(ctx, req, err, start)
		return nil, err
	}
	s.finish(ctx, run, start)
	s.remember(ctx, key, run)
	return run, nil
}

// SimulateBatch runs reqs concurrently on a bounded number of workers. Results keep request
// order; the first failure cancels the rest.
func (s *Simulator) SimulateBatch(ctx context.Context, reqs []models.SimulationRequest) ([]*models.SimulationRun, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidRequest)
	}
	if len(reqs) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d requests exceeds %d", ErrBatchTooLarge, len(reqs), s.maxBatch)
	}

	start := s.now()
	out := make([]*models.SimulationRun, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			run, err := s.Simulate(gctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			out[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.RecordLatency("batch", s.now().Sub(start).Seconds())
	return out, nil
}

// Stream runs req and hands every step to sink as it is computed. Streamed runs bypass the
// cache. Once sink fails or ctx is done no further steps are delivered and that error is
// returned.
func (s *Simulator) Stream(ctx context.Context, req models.SimulationRequest, sink service.StepSink) (*models.SimulationRun, error) {
	start := s.now()
	p, err := s.prepare(req)
	if err != nil {
		s.fail(ctx, req, err, start)
		return nil, err
	}

	var sinkErr error
	forward := twoprocess.ObserverFunc(func(st twoprocess.Step) {
		if sinkErr != nil {
			return
		}
		if sinkErr = ctx.Err(); sinkErr != nil {
			return
		}
		sinkErr = sink(stepMessage(st))
	})

	run, err := s.execute(p, append(s.observers(p), forward)...)
	if err == nil && sinkErr != nil {
		err = sinkErr
	}
	if err != nil {
		s.fail(ctx, req, err, start)
		return nil, err
	}
	s.finish(ctx, run, start)
	return run, nil
}

// Get returns a stored run, falling back to the cache when no store is configured or the
// store does not have it.
func (s *Simulator) Get(ctx context.Context, id string) (*models.SimulationRun, error) {
	if s.store != nil {
		run, err := s.store.GetRun(ctx, id)
		if err == nil {
			return run, nil
		}
		if !errors.Is(err, drepo.ErrRunNotFound) {
			s.metrics.RecordError("store_get")
			s.log.Warn("load run failed", applogger.String("run_id", id), applogger.Error(err))
		}
	}
	if s.cache != nil {
		run, err := cache.GetJSON[models.SimulationRun](ctx, s.cache, runKey(id))
		if err == nil {
			return &run, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get run failed", applogger.String("run_id", id), applogger.Error(err))
		}
	}
	return nil, fmt.Errorf("%w: %s", drepo.ErrRunNotFound, id)
}

func (s *Simulator) execute(p *prepared, observers ...twoprocess.Observer) (*models.SimulationRun, error) {
	res, err := p.model.Run(p.grid, p.h0, p.awake, observers...)
	if err != nil {
		return nil, err
	}
	periods := res.Periods()
	if p.req.SkipFirstWake {
		periods = res.PeriodsAfterFirstWake()
	}
	run := &models.SimulationRun{
		ID:              uuid.New().String(),
		RequestID:       p.req.RequestID,
		Scenario:        p.scenario,
		Parameters:      p.params,
		Grid:            p.spec,
		InitialPressure: p.h0,
		InitialAwake:    p.awake,
		Onsets:          res.Onsets(),
		Offsets:         res.Offsets(),
		Periods:         periods,
		TotalSleep:      totalSleep(periods),
		SkipFirstWake:   p.req.SkipFirstWake,
		CreatedAt:       s.now().UTC(),
	}
	if p.req.IncludeTrajectory {
		run.Trajectory = &models.Trajectory{
			Time:      res.Time(),
			Pressure:  res.Pressure(),
			Upper:     res.Upper(),
			Lower:     res.Lower(),
			Circadian: res.Circadian(),
			Awake:     res.Awake(),
		}
	}
	return run, nil
}

func (s *Simulator) observers(p *prepared) []twoprocess.Observer {
	return []twoprocess.Observer{
		newMetricsObserver(s.metrics),
		newLoggingObserver(s.log, p.scenario, p.params),
	}
}

// finish records, stores and announces a computed run.
func (s *Simulator) finish(ctx context.Context, run *models.SimulationRun, start time.Time) {
	s.metrics.RecordRun(run.Scenario, models.RunStatusOK, s.now().Sub(start).Seconds(), run.Grid.Points)
	s.metrics.RecordSleep(run.Scenario, run.TotalSleep)
	s.log.Debug("run finished",
		applogger.String("run_id", run.ID),
		applogger.String("scenario", run.Scenario),
		applogger.Int("points", run.Grid.Points),
		applogger.Int("periods", len(run.Periods)),
		applogger.Float("total_sleep_hours", run.TotalSleep),
	)
	logPeriods(s.log, run)

	if s.store != nil {
		t := s.now()
		if err := s.store.SaveRun(ctx, run); err != nil {
			s.metrics.RecordError("store_save")
			s.log.Error("save run failed", applogger.String("run_id", run.ID), applogger.Error(err))
		}
		s.metrics.RecordLatency("store_save", s.now().Sub(t).Seconds())
	}
	s.announce(ctx, run)
}

func (s *Simulator) announce(ctx context.Context, run *models.SimulationRun) {
	s.publish(ctx, &models.SimulationCompletedEvent{
		RunID:      run.ID,
		RequestID:  run.RequestID,
		Scenario:   run.Scenario,
		Status:     models.RunStatusOK,
		Points:     run.Grid.Points,
		Periods:    len(run.Periods),
		TotalSleep: run.TotalSleep,
		Cached:     run.Cached,
		Timestamp:  s.now().UTC(),
	})
}

// fail counts a rejected or aborted request and announces it.
func (s *Simulator) fail(ctx context.Context, req models.SimulationRequest, err error, start time.Time) {
	name := req.Scenario
	if name == "" {
		name = scenario.Baseline
	}
	kind := ErrorKind(err)
	s.metrics.RecordRun(name, models.RunStatusFailed, s.now().Sub(start).Seconds(), 0)
	s.metrics.RecordError(kind)
	s.log.Warn("run rejected",
		applogger.String("scenario", name),
		applogger.String("request_id", req.RequestID),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
	s.publish(ctx, &models.SimulationCompletedEvent{
		RequestID: req.RequestID,
		Scenario:  name,
		Status:    models.RunStatusFailed,
		Error:     err.Error(),
		Timestamp: s.now().UTC(),
	})
}

func (s *Simulator) publish(ctx context.Context, ev *models.SimulationCompletedEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishCompleted(ctx, ev); err != nil {
		s.metrics.RecordError("publish")
		s.log.Error("publish run event failed",
			applogger.String("run_id", ev.RunID),
			applogger.String("status", ev.Status),
			applogger.Error(err),
		)
	}
}

func (s *Simulator) lookup(ctx context.Context, key string) (*models.SimulationRun, bool) {
	if s.cache == nil {
		return nil, false
	}
	run, err := cache.GetJSON[models.SimulationRun](ctx, s.cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.RecordError("cache_get")
			s.log.Warn("cache get failed", applogger.Error(err))
		}
		s.metrics.RecordCache(false)
		return nil, false
	}
	s.metrics.RecordCache(true)
	run.Cached = true
	return &run, true
}

func (s *Simulator) remember(ctx context.Context, key string, run *models.SimulationRun) {
	if s.cache == nil {
		return
	}
	for _, k := range []string{key, runKey(run.ID)} {
		if err := cache.SetJSON(ctx, s.cache, k, run, s.cacheTTL); err != nil {
			s.metrics.RecordError("cache_set")
			s.log.Warn("cache set failed", applogger.String("key", k), applogger.Error(err))
		}
	}
}

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrGridTooLarge):
		return "grid_too_large"
	case errors.Is(err, ErrBatchTooLarge):
		return "batch_too_large"
	case errors.Is(err, scenario.ErrUnknownScenario):
		return "unknown_scenario"
	case errors.Is(err, twoprocess.ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, twoprocess.ErrInvalidGrid):
		return "invalid_grid"
	case errors.Is(err, twoprocess.ErrInvalidInitialState):
		return "invalid_initial_state"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "run"
	}
}

// IsRequestError reports whether err was caused by the request itself, so resubmitting it
// unchanged cannot succeed.
func IsRequestError(err error) bool {
	switch ErrorKind(err) {
	case "run", "canceled":
		return false
	default:
		return true
	}
}

func runKey(id string) string { return cache.GenerateKey("run", id) }

func totalSleep(periods []twoprocess.Period) float64 {
	var total float64
	for _, p := range periods {
		total += p.Duration()
	}
	return total
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func stepMessage(st twoprocess.Step) models.StepMessage {
	msg := models.StepMessage{
		Index:     st.Index,
		Time:      st.Time,
		Pressure:  st.Pressure,
		Upper:     st.Upper,
		Lower:     st.Lower,
		Circadian: st.Circadian,
		Awake:     st.Awake,
	}
	if st.Transition != twoprocess.NoTransition {
		msg.Transition = st.Transition.String()
	}
	return msg
}
