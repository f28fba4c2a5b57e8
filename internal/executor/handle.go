package executor

import (
	"context"
	"time"

	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/task"
)

// Handle is the typed view of a submitted task.
type Handle[R any] struct {
	f *task.Future
}

func newHandle[R any](f *task.Future) *Handle[R] {
	return &Handle[R]{f: f}
}

// ID returns the task ID.
func (h *Handle[R]) ID() string { return h.f.ID() }

// Future returns the underlying engine future.
func (h *Handle[R]) Future() *task.Future { return h.f }

// Done returns a channel closed once the task reaches a terminal outcome.
func (h *Handle[R]) Done() <-chan struct{} { return h.f.Done() }

// IsDone reports whether the task reached a terminal outcome.
func (h *Handle[R]) IsDone() bool { return h.f.IsDone() }

// Status returns the current task status.
func (h *Handle[R]) Status() string { return h.f.Status() }

// IsCancelled reports whether the task ended cancelled.
func (h *Handle[R]) IsCancelled() bool {
	return h.f.IsDone() && h.f.Status() == model.StatusCancelled
}

// Wait blocks until the task is done or ctx ends.
func (h *Handle[R]) Wait(ctx context.Context) error { return h.f.Wait(ctx) }

// WaitTimeout blocks until the task is done or d elapses, in which case it
// returns task.ErrTimedOut.
func (h *Handle[R]) WaitTimeout(d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return h.f.Wait(ctx)
}

// Get blocks until the task is done and returns its result.
func (h *Handle[R]) Get(ctx context.Context) (R, error) {
	v, err := h.f.Get(ctx)
	return typed[R](v, err)
}

// GetTimeout is Get bounded by d.
func (h *Handle[R]) GetTimeout(d time.Duration) (R, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return h.Get(ctx)
}

// Result returns the outcome without blocking, or task.ErrPending.
func (h *Handle[R]) Result() (R, error) {
	return typed[R](h.f.Result())
}

// Cancel requests cancellation and reports whether it took effect. It
// returns false if the task had already completed.
func (h *Handle[R]) Cancel() bool { return h.f.Cancel() }

func typed[R any](v any, err error) (R, error) {
	if err != nil {
		var zero R
		return zero, err
	}
	r, _ := v.(R)
	return r, nil
}
