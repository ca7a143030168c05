// Package duration provides parsing for human-readable duration strings.
package duration

import (
	"fmt"
	"strings"
	"time"
)

// Parse parses durations like "90s", "1m30s", "5m", "2h", "1d" or "1w".
// Go duration syntax is accepted first; a single integer followed by one
// of the extended units (min, hr, d, w) is accepted as a fallback.
// The result must be positive.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration must be positive: %s", s)
		}
		return d, nil
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use e.g., 30s, 1m, 2h, 1d)", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", s)
	}

	var d time.Duration
	switch unit {
	case "sec", "secs":
		d = time.Duration(n) * time.Second
	case "min", "mins":
		d = time.Duration(n) * time.Minute
	case "hr", "hrs", "hour", "hours":
		d = time.Duration(n) * time.Hour
	case "d", "day", "days":
		d = time.Duration(n) * 24 * time.Hour
	case "w", "wk", "wks", "week", "weeks":
		d = time.Duration(n) * 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}

	return d, nil
}
