package optional

import (
	"math"
	"testing"
)

func TestMapToIntEmpty(t *testing.T) {
	called := false
	got := MapToInt(Empty[float64](), func(float64) int {
		called = true
		return 1
	})

	if got.IsPresent() {
		t.Error("MapToInt(empty) is present, want empty")
	}
	if called {
		t.Error("function ran on an empty optional")
	}
}

func TestMapToIntPresent(t *testing.T) {
	tests := []struct {
		in   float64
		fn   func(float64) int
		want int
	}{
		{4.0, func(x float64) int { return int(x) }, 4},
		{2.6, func(x float64) int { return int(math.Round(x)) }, 3},
		{-1.5, func(x float64) int { return int(x) }, -1},
	}

	for _, tt := range tests {
		got, ok := MapToInt(Of(tt.in), tt.fn).Get()
		if !ok {
			t.Errorf("MapToInt(%v) is empty, want %d", tt.in, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("MapToInt(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMapToIntNilFunctionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MapToInt with a nil function did not panic")
		}
	}()
	MapToInt(Empty[float64](), nil)
}

func TestOrElse(t *testing.T) {
	if got := Of(5).OrElse(9); got != 5 {
		t.Errorf("Of(5).OrElse(9) = %d, want 5", got)
	}
	if got := Empty[int]().OrElse(9); got != 9 {
		t.Errorf("Empty.OrElse(9) = %d, want 9", got)
	}
}
