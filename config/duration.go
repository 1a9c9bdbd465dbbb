// config/duration.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationFlexible accepts "90s"/"2m" strings, plain seconds (as a string
// or any number), or a time.Duration. Nil and unknown types yield def with no
// error; invalid or non-positive values yield def and an error.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		if parsed, err := time.ParseDuration(s); err == nil {
			d = parsed
		} else if n, err := strconv.ParseFloat(s, 64); err == nil {
			d = time.Duration(n * float64(time.Second))
		} else {
			return def, fmt.Errorf("cannot parse duration %q", s)
		}
	case int:
		d = time.Duration(t) * time.Second
	case int32:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case float64:
		d = time.Duration(t * float64(time.Second))
	default:
		return def, nil
	}
	if d <= 0 {
		return def, fmt.Errorf("duration must be >0, got %v", raw)
	}
	return d, nil
}
