package replication

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/keyed-array/envutil"
)

// ErrUnknownCompression is returned for a compression name or wire tag this
// package does not implement.
var ErrUnknownCompression = errors.New("unknown compression")

// Compression selects how payloads are compressed on the wire. The value is
// written as the first byte of every payload.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionSnappy
	CompressionLZ4
	CompressionBrotli
)

var compressionNames = map[Compression]string{ //nolint:gochecknoglobals
	CompressionNone:   "none",
	CompressionGzip:   "gzip",
	CompressionZstd:   "zstd",
	CompressionSnappy: "snappy",
	CompressionLZ4:    "lz4",
	CompressionBrotli: "brotli",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}

	return fmt.Sprintf("compression(%d)", byte(c))
}

// ParseCompression maps a name such as "zstd" to a Compression.
func ParseCompression(name string) (Compression, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for c, n := range compressionNames {
		if n == name {
			return c, nil
		}
	}

	return CompressionNone, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
}

const defaultFanoutWorkers = 8

// Config holds the environment driven replication settings.
type Config struct {
	Compression   Compression
	FanoutWorkers int
}

var errNonPositive = errors.New("must be positive")

// ConfigFromEnv reads KEYEDARRAY_COMPRESSION (default zstd) and
// KEYEDARRAY_FANOUT_WORKERS (default 8).
func ConfigFromEnv() (Config, error) {
	compression, err := envutil.Map(
		envutil.String("KEYEDARRAY_COMPRESSION", envutil.Default(CompressionZstd.String())),
		ParseCompression,
	).Value()
	if err != nil {
		return Config{}, err
	}

	workers, err := envutil.Int("KEYEDARRAY_FANOUT_WORKERS",
		envutil.Default(defaultFanoutWorkers),
		envutil.Validate(func(n int) error {
			if n <= 0 {
				return errNonPositive
			}

			return nil
		})).Value()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Compression:   compression,
		FanoutWorkers: workers,
	}, nil
}
