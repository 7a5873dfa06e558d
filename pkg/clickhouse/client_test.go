package clickhouse

import (
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "sleepsim",
		User:        "default",
		Password:    "pw",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 30 * time.Second,
		AsyncInsert: true,
	}
	got := buildDSN(cfg)
	want := "clickhouse://default:pw@ch:9000/sleepsim?dial_timeout=5s&max_execution_time=30&async_insert=1"
	if got != want {
		t.Fatalf("dsn:\n got %s\nwant %s", got, want)
	}

	cfg.UseHTTP = true
	cfg.WaitForAsync = true
	cfg.DialTimeout = 0
	cfg.MaxExecTime = 0
	got = buildDSN(cfg)
	want = "clickhouse+http://default:pw@ch:9000/sleepsim?async_insert=1&wait_for_async_insert=1"
	if got != want {
		t.Fatalf("http dsn:\n got %s\nwant %s", got, want)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(WithPort(9000)); err == nil {
		t.Fatalf("expected error without host")
	}
}
