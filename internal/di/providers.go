package di

import (
	"context"
	"fmt"
	"sort"
	"time"

	"SleepSim/internal/domain/repository"
	"SleepSim/internal/domain/service"
	"SleepSim/internal/handler/api"
	internalrepo "SleepSim/internal/repository"
	"SleepSim/internal/service/ratelimit"
	"SleepSim/internal/services/scenario"
	"SleepSim/internal/services/twoprocess"
	"SleepSim/internal/usecase"
	"SleepSim/pkg/cache"
	pkgch "SleepSim/pkg/clickhouse"
	"SleepSim/pkg/config"
	xhttp "SleepSim/pkg/http"
	"SleepSim/pkg/http/middleware"
	pkgkafka "SleepSim/pkg/kafka"
	applogger "SleepSim/pkg/logger"
	"SleepSim/pkg/metrics"
	"SleepSim/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvidePrometheusRegistry creates the registry every component registers on and /metrics
// serves.
func ProvidePrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideScenarioRegistry builds the scenario registry from the model and scenario sections.
func ProvideScenarioRegistry(cfg *config.Config) (*scenario.Registry, error) {
	m := cfg.Model
	base := twoprocess.Parameters{
		SleepDecayRate:       m.SleepDecayRate,
		WakeDecayRate:        m.WakeDecayRate,
		WakeBaselinePressure: m.WakeBaselinePressure,
		CircadianAmplitude:   m.CircadianAmplitude,
		CircadianFrequency:   m.CircadianFrequency,
		CircadianPhaseShift:  m.CircadianPhaseShift,
		UpperBoundBaseline:   m.UpperBoundBaseline,
		LowerBoundBaseline:   m.LowerBoundBaseline,
		MaxSleepPressure:     m.MaxSleepPressure,
	}

	names := make([]string, 0, len(cfg.Scenarios))
	for name := range cfg.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	extra := make([]scenario.Scenario, 0, len(names))
	for _, name := range names {
		sc := cfg.Scenarios[name]
		delta, err := scenario.DeltaFromMap(sc.Parameters)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}
		extra = append(extra, scenario.Scenario{Name: name, Description: sc.Description, Delta: delta})
	}

	reg, err := scenario.NewRegistry(base, extra...)
	if err != nil {
		return nil, fmt.Errorf("scenario registry: %w", err)
	}
	return reg, nil
}

// ProvideCache creates the result cache: memory only, or memory in front of Redis. It is nil
// when caching is disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
			cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		), nil
	}
	remote, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(remote,
		cache.WithLayeredMemorySize(cfg.Cache.Memory.MaxSize),
		cache.WithLayeredMemoryTTL(cfg.Cache.TTL),
	), nil
}

// ProvideRunStore connects to ClickHouse and ensures the schema. It is nil when ClickHouse
// is disabled.
func ProvideRunStore(cfg *config.Config, l *applogger.Logger) (repository.RunStore, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHRunStore(client, cfg.ClickHouse.Database, cfg.ClickHouse.StoreTrajectory, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer. It is nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRunPublisher announces runs on the completed topic. It is nil without a producer.
func ProvideRunPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RunPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.Topics.Completed)
}

// ProvideSimulator creates the simulation use case.
func ProvideSimulator(
	cfg *config.Config,
	registry *scenario.Registry,
	m repository.Metrics,
	l *applogger.Logger,
	store repository.RunStore,
	pub repository.RunPublisher,
	c cache.Service,
) *usecase.Simulator {
	opts := []usecase.SimulatorOption{
		usecase.WithGridDefaults(usecase.GridDefaults{
			Start:     cfg.Simulation.Start,
			End:       cfg.Simulation.End,
			Step:      cfg.Simulation.Step,
			MaxPoints: cfg.Simulation.MaxPoints,
		}),
		usecase.WithBatchLimits(cfg.Simulation.BatchWorkers, cfg.Simulation.MaxBatchSize),
	}
	if store != nil {
		opts = append(opts, usecase.WithRunStore(store))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	if c != nil {
		opts = append(opts, usecase.WithCache(c, cfg.Cache.TTL))
	}
	return usecase.NewSimulator(registry, m, l, opts...)
}

// ProvideSimulatorService exposes the use case to the transports.
func ProvideSimulatorService(sim *usecase.Simulator) service.Simulator {
	return sim
}

// ProvideRateLimiter creates the per-address limiter. It is nil when rate limiting is off.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RequestsPerSecond, int(cfg.RateLimit.Burst))
}

// ProvideSimulationHandler creates the simulation API handler.
func ProvideSimulationHandler(
	cfg *config.Config,
	sim service.Simulator,
	m repository.Metrics,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
) *api.SimulationHandler {
	var allow middleware.Allower
	if limiter != nil {
		allow = limiter
	}
	return api.NewSimulationHandler(sim, m, allow, l, cfg.Simulation.StreamTimeout)
}

// ProvideHTTPServer creates the Echo server with every API handler registered.
func ProvideHTTPServer(cfg *config.Config, h *api.SimulationHandler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(path, reg, reg),
	)
}

// ProvideKafkaConsumer creates the run-request consumer. It is nil unless the consumer is
// enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, m repository.Metrics, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook(),
		pkgkafka.LoggingHook(l.Component("kafka_consumer")),
		pkgkafka.CountingHook(func(topic string) { m.RecordError("consumer_" + topic) }),
	))
	return consumer, nil
}

// ProvideRunRequestHandler handles the run-request topic.
func ProvideRunRequestHandler(cfg *config.Config, sim service.Simulator, m repository.Metrics) *usecase.RunRequestHandler {
	return usecase.NewRunRequestHandler(cfg.Kafka.Topics.Requests, sim, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.RunRequestHandler,
	store repository.RunStore,
	pub repository.RunPublisher,
	c cache.Service,
	limiter *ratelimit.Limiter,
) *server.App {
	app := server.New(cfg, l, httpServer)
	if consumer != nil {
		app.SetConsumer(consumer, kh)
	}
	app.SetLimiter(limiter)
	app.AddCloser("clickhouse", store)
	app.AddCloser("kafka producer", pub)
	app.AddCloser("cache", c)
	return app
}
