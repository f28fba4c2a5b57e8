// Package objects holds small generic helpers for building and comparing values.
package objects

import "reflect"

// Get returns the value produced by supplier.
func Get[T any](supplier func() T) T {
	return supplier()
}

// Make applies configure to value and returns value.
func Make[T any](value T, configure func(T)) T {
	configure(value)
	return value
}

// Build configures builder and returns the value create produces from it.
func Build[B, C any](builder B, configure func(B), create func(B) C) C {
	return create(Make(builder, configure))
}

// Equals reports whether you equals me. you must be the same pointer as me,
// or have the same dynamic type as me and satisfy pred. pred only runs when
// the types match.
func Equals[T any](me T, you any, pred func(T) bool) bool {
	if you == nil {
		return false
	}
	if reflect.TypeOf(you) != reflect.TypeOf(me) {
		return false
	}
	other := you.(T)
	if samePointer(me, other) {
		return true
	}
	return pred(other)
}

func samePointer[T any](a, b T) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
