//nolint:ireturn
package envutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
)

// Reader is a value read from an environment variable together with whether
// it was present and any parse error. Transformations and defaults are applied
// with Map and the Option helpers.
type Reader[A any] struct {
	key     string
	present bool
	err     error

	value A
}

// Key returns the environment variable name.
func (e Reader[A]) Key() string {
	return e.key
}

// Value returns the value, or an error if it is missing or failed to parse.
func (e Reader[A]) Value() (A, error) {
	if e.err != nil {
		return e.value, fmt.Errorf("%w %s: %w (given value is %v)", ErrBadEnvVar, e.key, e.err, e.value)
	}

	if !e.present {
		return e.value, fmt.Errorf("%w %s", ErrEnvVarMissing, e.key)
	}

	return e.value, nil
}

// ValueOrFatal returns the value, or logs and exits the program.
func (e Reader[A]) ValueOrFatal() A {
	value, err := e.Value()
	if err != nil {
		slog.Error("error reading environment variable", "key", e.key, "error", err)
		os.Exit(1)
	}

	return value
}

// ValueOrElse returns the value, or v if it is missing or failed to parse.
// A parse failure is logged as a warning.
func (e Reader[A]) ValueOrElse(v A) A {
	if e.present && e.err == nil {
		return e.value
	}

	if e.err != nil {
		slog.Warn("error reading environment variable, using fallback value",
			"key", e.key, "error", e.err, "fallback", v)
	}

	return v
}

// HasValue returns true if the variable was set and parsed.
func (e Reader[A]) HasValue() bool {
	return e.present && e.err == nil
}

// WithDefault supplies v when the variable is not set.
func (e Reader[A]) WithDefault(v A) Reader[A] {
	if e.present {
		return e
	}

	return Reader[A]{
		key:     e.key,
		present: true,
		err:     e.err,
		value:   v,
	}
}

// Map transforms the value of a present, error-free Reader.
func Map[A any, B any](env Reader[A], f func(A) (B, error)) Reader[B] {
	if !env.present || env.err != nil {
		return Reader[B]{
			key:     env.key,
			present: env.present,
			err:     env.err,
		}
	}

	val, err := f(env.value)

	return Reader[B]{
		key:     env.key,
		present: true,
		err:     err,
		value:   val,
	}
}
