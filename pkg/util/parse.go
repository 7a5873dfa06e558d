package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseBoolDefault parses string to bool or returns default if empty/invalid.
func ParseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// ParseHours reads a simulation time in hours. Plain numbers are hours; Go duration
// strings such as "90m" or "1h30m" are converted.
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty hours value")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("hours must be finite: %q", s)
		}
		return v, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q: %w", s, err)
	}
	return d.Hours(), nil
}

// ParseHoursDefault is ParseHours returning def when s is empty or invalid.
func ParseHoursDefault(s string, def float64) float64 {
	v, err := ParseHours(s)
	if err != nil {
		return def
	}
	return v
}

// FormatClock renders hours as a day offset and wall clock, e.g. 31.5 -> "d1 07:30".
func FormatClock(hours float64) string {
	minutes := int(math.Round(hours * 60))
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	day := minutes / (24 * 60)
	rem := minutes % (24 * 60)
	return fmt.Sprintf("%sd%d %02d:%02d", sign, day, rem/60, rem%60)
}
