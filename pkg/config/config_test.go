package config

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if c.Server.Port != 8080 || c.Simulation.End != 48 || c.Cache.TTL != 10*time.Minute {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if math.Abs(c.Model.CircadianFrequency-2*math.Pi/24) > 1e-15 {
		t.Fatalf("circadian frequency default: %v", c.Model.CircadianFrequency)
	}
	if c.Kafka.Topics.Completed != "simulation.completed" || c.Kafka.Topics.Requests != "simulation.requests" {
		t.Fatalf("topics: %+v", c.Kafka.Topics)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	doc := `
environment: production
server:
  port: 9090
model:
  wake_baseline_pressure: 0
  circadian_amplitude: 0.25
scenarios:
  night_shift:
    description: works nights
    parameters:
      circadian_phase_shift: 3.14
simulation:
  step: 0.5
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Environment != "production" || c.Server.Port != 9090 {
		t.Fatalf("top-level overrides lost: %+v", c)
	}
	// an explicit zero must survive
	if c.Model.WakeBaselinePressure != 0 || c.Model.CircadianAmplitude != 0.25 || c.Model.SleepDecayRate != 4.2 {
		t.Fatalf("model: %+v", c.Model)
	}
	sc, ok := c.Scenarios["night_shift"]
	if !ok || sc.Parameters["circadian_phase_shift"] != 3.14 {
		t.Fatalf("scenarios: %+v", c.Scenarios)
	}
	if c.Simulation.Step != 0.5 || c.Simulation.End != 48 {
		t.Fatalf("simulation: %+v", c.Simulation)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad environment":   "environment: moon\n",
		"bad port":          "server:\n  port: 70000\n",
		"reversed span":     "simulation:\n  start: 10\n  end: 5\n",
		"kafka no brokers":  "kafka:\n  enabled: true\n",
		"consumer no kafka": "kafka:\n  consumer:\n    enabled: true\n",
		"bad log level":     "log:\n  level: loud\n",
		"not yaml":          "server: [",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	c, _ := Default()
	env := map[string]string{
		"SLEEPSIM_ENV":    "staging",
		"HTTP_PORT":       "9999",
		"KAFKA_BROKERS":   "k1:9092, k2:9092,",
		"REDIS_ADDR":      "cache.local:6380",
		"CLICKHOUSE_HOST": "ch.local",
		"LOG_LEVEL":       "DEBUG",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if c.Environment != "staging" || c.Server.Port != 9999 || c.Log.Level != "debug" {
		t.Fatalf("scalars: %+v", c)
	}
	if strings.Join(c.Kafka.Brokers, "|") != "k1:9092|k2:9092" || !c.Kafka.Enabled {
		t.Fatalf("brokers: %v", c.Kafka.Brokers)
	}
	if c.RedisAddr() != "cache.local:6380" || !c.Cache.Redis.Enabled {
		t.Fatalf("redis: %s", c.RedisAddr())
	}
	if c.ClickHouse.Host != "ch.local" || !c.ClickHouse.Enabled {
		t.Fatalf("clickhouse: %+v", c.ClickHouse)
	}

	env = map[string]string{"HTTP_PORT": "eighty"}
	if err := c.ApplyEnv(lookup); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}
