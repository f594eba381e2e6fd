// Package env provides small helpers for reading typed values from
// environment variables with defaults. Empty or unparseable values fall
// back to the default rather than erroring; validation of required values
// belongs to the caller.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Or returns the trimmed value of key, or def when unset/empty.
func Or(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// IntOr returns key parsed as an int, or def.
func IntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// Float64Or returns key parsed as a float64, or def.
func Float64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

// BoolOr returns key parsed as a boolean, or def. Accepts the usual
// spellings (1/0, true/false, yes/no, on/off), case-insensitive.
func BoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

// DurationOr returns key parsed as a time.Duration ("750ms", "2s"), or def.
// Bare integers are read as milliseconds.
func DurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return def
}
