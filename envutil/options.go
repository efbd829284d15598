package envutil

// Option modifies a Reader. String, Bool, Int and SlogLevel accept options so
// callers can provide defaults and validation inline.
type Option[T any] func(Reader[T]) Reader[T]

// Default provides a value to use when the variable is not set.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithDefault(dfl)
	}
}

// Validate runs f against the value; a non-nil result becomes the Reader's
// error.
func Validate[T any](f func(T) error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return Map(rdr, func(val T) (T, error) {
			return val, f(val)
		})
	}
}
