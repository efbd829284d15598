// Package optional provides Value, a result that may or may not hold something.
// Keyed lookups return it where a nil pointer would otherwise alias storage.
package optional

import (
	"fmt"
	"iter"
)

// Value holds either one T (Some) or nothing (None). The zero Value is None.
type Value[T any] struct {
	value T
	isSet bool
}

// Some creates a Value containing value.
func Some[T any](value T) Value[T] {
	return Value[T]{value: value, isSet: true}
}

// None creates an empty Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// NonEmpty returns true if the Value contains a value.
func (o Value[T]) NonEmpty() bool {
	return o.isSet
}

// Empty returns true if the Value does not contain a value.
func (o Value[T]) Empty() bool {
	return !o.isSet
}

// Get returns the value and whether it is present.
func (o Value[T]) Get() (T, bool) { //nolint:ireturn
	return o.value, o.isSet
}

// GetOrPanic returns the value, or panics if the Value is None.
func (o Value[T]) GetOrPanic() T { //nolint:ireturn
	if !o.isSet {
		panic("called GetOrPanic on None")
	}

	return o.value
}

// GetOrElse returns the value if present, or defaultValue.
func (o Value[T]) GetOrElse(defaultValue T) T { //nolint:ireturn
	if o.isSet {
		return o.value
	}

	return defaultValue
}

// All yields the value once if present.
func (o Value[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if o.isSet {
			yield(o.value)
		}
	}
}

// String returns "Some(value)" or "None".
func (o Value[T]) String() string {
	if o.isSet {
		return fmt.Sprintf("Some(%v)", o.value)
	}

	return "None"
}

// Map returns Some(f(value)) or None.
func Map[T any, U any](o Value[T], f func(T) U) Value[U] {
	if o.isSet {
		return Some(f(o.value))
	}

	return None[U]()
}
