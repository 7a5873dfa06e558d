package util

import "testing"

func TestParseHours(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"36", 36},
		{" 0.25 ", 0.25},
		{"-6", -6},
		{"90m", 1.5},
		{"1h30m", 1.5},
		{"48h", 48},
	}
	for _, c := range cases {
		got, err := ParseHours(c.in)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %v want %v", c.in, got, c.want)
		}
	}
	for _, bad := range []string{"", "soon", "NaN", "Inf"} {
		if _, err := ParseHours(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	if ParseIntDefault("", 7) != 7 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("3", 7) != 3 {
		t.Fatalf("ParseIntDefault")
	}
	if !ParseBoolDefault("", true) || ParseBoolDefault("false", true) || !ParseBoolDefault("1", false) {
		t.Fatalf("ParseBoolDefault")
	}
	if ParseHoursDefault("bad", 2) != 2 || ParseHoursDefault("30m", 2) != 0.5 {
		t.Fatalf("ParseHoursDefault")
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{
		0:     "d0 00:00",
		7.5:   "d0 07:30",
		31.5:  "d1 07:30",
		47.99: "d1 23:59",
		-1.5:  "-d0 01:30",
	}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("%v: got %q want %q", in, got, want)
		}
	}
}
