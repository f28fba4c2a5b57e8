package task

import (
	"context"

	"github.com/seantiz/lunar/internal/model"
)

// Callable is a computation that produces a result of type R and may fail.
// The context is cancelled when the task is cancelled or interrupted; long
// running bodies should check it at convenient points.
type Callable[R any] func(ctx context.Context) (R, error)

// Action is a unit of work with no result that may fail.
type Action func(ctx context.Context) error

// Func is the type-erased body engines execute.
type Func func(ctx context.Context) (any, error)

// Task is an immutable unit of work as seen by an engine.
type Task struct {
	id   string
	name string
	fn   Func
}

// New wraps fn into a Task with a fresh ID.
func New(name string, fn Func) Task {
	return Task{id: model.NewID(), name: name, fn: fn}
}

// FromCallable erases the result type of c. A nil c yields an invalid Task.
func FromCallable[R any](name string, c Callable[R]) Task {
	if c == nil {
		return New(name, nil)
	}
	return New(name, func(ctx context.Context) (any, error) {
		return c(ctx)
	})
}

// FromAction adapts a. A nil a yields an invalid Task.
func FromAction(name string, a Action) Task {
	if a == nil {
		return New(name, nil)
	}
	return New(name, func(ctx context.Context) (any, error) {
		return struct{}{}, a(ctx)
	})
}

// ID returns the task identifier.
func (t Task) ID() string { return t.id }

// Name returns the human-readable task name. It may be empty.
func (t Task) Name() string { return t.name }

// Valid reports whether the task has a body.
func (t Task) Valid() bool { return t.fn != nil }

// Run executes the task body on the calling goroutine.
func (t Task) Run(ctx context.Context) (any, error) {
	if t.fn == nil {
		return nil, ErrNilTask
	}
	return t.fn(ctx)
}
