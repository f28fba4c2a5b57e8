// Package optional provides a value that may be absent.
package optional

// Optional holds a value of type T or nothing.
type Optional[T any] struct {
	value   T
	present bool
}

// Of returns an Optional holding v.
func Of[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Empty returns an Optional holding nothing.
func Empty[T any]() Optional[T] {
	return Optional[T]{}
}

// IsPresent reports whether o holds a value.
func (o Optional[T]) IsPresent() bool { return o.present }

// Get returns the held value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.present }

// OrElse returns the held value, or fallback if o is empty.
func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// MapToInt applies fn to the value of o. The result is empty iff o is empty.
// It panics if fn is nil.
func MapToInt(o Optional[float64], fn func(float64) int) Optional[int] {
	if fn == nil {
		panic("optional: nil function")
	}
	if !o.present {
		return Empty[int]()
	}
	return Of(fn(o.value))
}
