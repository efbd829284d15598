// Package zero provides the zero value of a type parameter, the "default" that
// safe getters return for absent keys.
package zero

// Value returns the zero value for type T.
//
// Example:
//
//	zero.Value[float32]() // 0
//	zero.Value[string]()  // ""
//	zero.Value[*Object]() // nil
func Value[T any]() T { //nolint:ireturn
	var zeroVal T

	return zeroVal
}

// IsZero reports whether value equals the zero value of T.
func IsZero[T comparable](value T) bool {
	return value == Value[T]()
}
