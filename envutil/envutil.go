// Package envutil reads typed configuration from environment variables.
package envutil

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

func get(key string) Reader[string] {
	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok,
		value:   val,
	}
}

func apply[T any](rdr Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// String returns a Reader for the given environment variable key.
func String(key string, opts ...Option[string]) Reader[string] {
	return apply(get(key), opts)
}

// Bool parses the variable with strconv.ParseBool.
func Bool(key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(get(key), strconv.ParseBool), opts)
}

// Int parses the variable as a base-10 int.
func Int(key string, opts ...Option[int]) Reader[int] {
	return apply(Map(get(key), func(s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	}), opts)
}

// SlogLevel parses the variable as a slog level name (debug, info, warn, error).
func SlogLevel(key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(get(key), func(s string) (slog.Level, error) {
		var level slog.Level

		err := level.UnmarshalText([]byte(strings.TrimSpace(s)))

		return level, err
	}), opts)
}

// Duration parses the variable with time.ParseDuration.
func Duration(key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(get(key), func(s string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(s))
	}), opts)
}
