package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationFlexible reads a duration from a config value: a Go duration
// string ("90s", "10m"), whole seconds as a number or numeric string, or a
// time.Duration. Empty or unsupported values yield def with no error; zero,
// negative or unparsable values yield def and an error.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case int:
		d = time.Duration(t) * time.Second
	case int32:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case float64:
		d = time.Duration(t * float64(time.Second))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			n, nerr := strconv.ParseInt(s, 10, 64)
			if nerr != nil {
				return def, fmt.Errorf("cannot parse duration %q", s)
			}
			parsed = time.Duration(n) * time.Second
		}
		d = parsed
	default:
		return def, nil
	}

	if d <= 0 {
		return def, fmt.Errorf("duration must be positive (got %v)", raw)
	}
	return d, nil
}
