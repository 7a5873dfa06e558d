package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string                    `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Log         LogConfig                 `yaml:"log"`
	Server      ServerConfig              `yaml:"server"`
	Metrics     MetricsConfig             `yaml:"metrics"`
	Model       ModelConfig               `yaml:"model"`
	Scenarios   map[string]ScenarioConfig `yaml:"scenarios" validate:"dive"`
	Simulation  SimulationConfig          `yaml:"simulation"`
	Cache       CacheConfig               `yaml:"cache"`
	Kafka       KafkaConfig               `yaml:"kafka"`
	ClickHouse  ClickHouseConfig          `yaml:"clickhouse"`
	RateLimit   RateLimitConfig           `yaml:"ratelimit"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" default:"/metrics"`
}

// ModelConfig is the base parameter set every scenario starts from.
type ModelConfig struct {
	SleepDecayRate       float64 `yaml:"sleep_decay_rate" default:"4.2"`
	WakeDecayRate        float64 `yaml:"wake_decay_rate" default:"18.2"`
	WakeBaselinePressure float64 `yaml:"wake_baseline_pressure" default:"1"`
	CircadianAmplitude   float64 `yaml:"circadian_amplitude" default:"0.3"`
	CircadianFrequency   float64 `yaml:"circadian_frequency" default:"0.2617993877991494"`
	CircadianPhaseShift  float64 `yaml:"circadian_phase_shift"`
	UpperBoundBaseline   float64 `yaml:"upper_bound_baseline" default:"0.6"`
	LowerBoundBaseline   float64 `yaml:"lower_bound_baseline" default:"0.17"`
	MaxSleepPressure     float64 `yaml:"max_sleep_pressure" default:"1"`
}

// ScenarioConfig names a set of parameter replacements, keyed by snake_case parameter name.
type ScenarioConfig struct {
	Description string             `yaml:"description"`
	Parameters  map[string]float64 `yaml:"parameters" validate:"required"`
}

type SimulationConfig struct {
	Start         float64       `yaml:"start"`
	End           float64       `yaml:"end" default:"48"`
	Step          float64       `yaml:"step" default:"0.1" validate:"gt=0"`
	MaxPoints     int           `yaml:"max_points" default:"200000" validate:"min=2"`
	BatchWorkers  int           `yaml:"batch_workers" default:"4" validate:"min=1"`
	MaxBatchSize  int           `yaml:"max_batch_size" default:"32" validate:"min=1"`
	StreamTimeout time.Duration `yaml:"stream_timeout" default:"30s"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" default:"10m"`
	Memory  struct {
		MaxSize         int           `yaml:"max_size" default:"1000" validate:"min=1"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
	} `yaml:"memory"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"sleepsim"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	Topics       struct {
		Completed string `yaml:"completed" default:"simulation.completed"`
		Requests  string `yaml:"requests" default:"simulation.requests"`
	} `yaml:"topics"`
	Producer struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"10ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled    bool          `yaml:"enabled"`
		GroupID    string        `yaml:"group_id" default:"sleepsim"`
		Workers    int           `yaml:"workers" default:"4" validate:"min=1"`
		BufferSize int           `yaml:"buffer_size" default:"100"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"simulation.requests.dlq"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"sleepsim"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	StoreTrajectory  bool          `yaml:"store_trajectory"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gt=0"`
	Burst             float64 `yaml:"burst" default:"10" validate:"gte=1"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Parse applies defaults, then the YAML document on top, then validates.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	if v, ok := get("SLEEPSIM_ENV"); ok {
		c.Environment = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("HTTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := get("REDIS_ADDR"); ok {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Cache.Redis.Host, c.Cache.Redis.Port = host, p
		c.Cache.Redis.Enabled = true
		c.Cache.Enabled = true
	}
	if v, ok := get("CLICKHOUSE_HOST"); ok {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	return nil
}

// Validate checks tags first, then rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s%s", fe.Namespace(), fe.Tag(), paramSuffix(fe.Param())))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Simulation.End <= c.Simulation.Start {
		return fmt.Errorf("simulation.end (%g) must be after simulation.start (%g)", c.Simulation.End, c.Simulation.Start)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("kafka.consumer.enabled requires kafka.enabled")
	}
	if c.Kafka.Consumer.BackoffMax < c.Kafka.Consumer.BackoffMin {
		return fmt.Errorf("kafka.consumer.backoff_max must be >= backoff_min")
	}
	if c.Cache.Redis.Enabled && !c.Cache.Enabled {
		return fmt.Errorf("cache.redis.enabled requires cache.enabled")
	}
	return nil
}

// RedisAddr joins the redis host and port.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Cache.Redis.Host, strconv.Itoa(c.Cache.Redis.Port))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
