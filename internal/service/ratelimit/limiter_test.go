package ratelimit

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAllowBurstThenRefill(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	l := New(2, 3, WithClock(c.now))

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst rejected", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("request beyond burst allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("keys must not share buckets")
	}

	c.t = c.t.Add(500 * time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Fatalf("one token should be back after 0.5s at 2/s")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("only one token should have been refilled")
	}

	c.t = c.t.Add(time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("refill must cap at burst, request %d rejected", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("refill exceeded burst")
	}
}

func TestZeroBurstStillAllowsOne(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	l := New(0, 0, WithClock(c.now))
	if !l.Allow("k") {
		t.Fatalf("first request rejected")
	}
	if l.Allow("k") {
		t.Fatalf("zero rate must not refill")
	}
}

func TestPrune(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	l := New(1, 1, WithClock(c.now))
	l.Allow("a")
	c.t = c.t.Add(time.Minute)
	l.Allow("b")
	if n := l.Prune(30 * time.Second); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, ok := l.m["b"]; !ok {
		t.Fatalf("recent bucket pruned")
	}
}
