package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/seantiz/lunar/internal/model"
)

// Future tracks a submitted task until it reaches a terminal outcome.
//
// Engines create one Future per accepted task and drive it with Start and
// Complete. Callers observe it through Wait, Get and Cancel. All methods are
// safe for concurrent use.
type Future struct {
	task     Task
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	observer Observer

	// notifyMu serializes transition+notification so observers see the
	// transitions of one task in order.
	notifyMu sync.Mutex

	mu          sync.Mutex
	status      string
	value       any
	err         error
	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time
}

// NewFuture creates a pending Future for t. obs may be nil.
func NewFuture(t Task, obs Observer) *Future {
	ctx, cancel := context.WithCancel(context.Background())
	return &Future{
		task:        t,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		observer:    obs,
		status:      model.StatusPending,
		submittedAt: time.Now().UTC(),
	}
}

// ID returns the ID of the underlying task.
func (f *Future) ID() string { return f.task.ID() }

// Task returns the underlying task.
func (f *Future) Task() Task { return f.task }

// Context returns the cancellation token handed to the task body.
func (f *Future) Context() context.Context { return f.ctx }

// Done returns a channel that is closed once the task reaches a terminal outcome.
func (f *Future) Done() <-chan struct{} { return f.done }

// Status returns the current task status.
func (f *Future) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// IsDone reports whether the task reached a terminal outcome. It never blocks.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task is done or ctx ends. It returns nil once the task
// is done regardless of its outcome; ErrTimedOut if ctx's deadline passed;
// ErrCancelled wrapping ctx.Err() if ctx was cancelled.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	default:
	}
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return WaitError(ctx)
	}
}

// Result returns the outcome of a finished task without blocking. Before the
// task is done it returns ErrPending.
func (f *Future) Result() (any, error) {
	if !f.IsDone() {
		return nil, ErrPending
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Get blocks until the task is done and returns its result. The error is a
// *TaskFailedError when the body failed, ErrCancelled (or ErrNotRun) when the
// task was cancelled, or the wait error when ctx ended first.
func (f *Future) Get(ctx context.Context) (any, error) {
	if err := f.Wait(ctx); err != nil {
		return nil, err
	}
	return f.Result()
}

// Cancel requests cancellation. A pending task will never run; a running task
// has its context cancelled and its eventual result discarded. Cancel reports
// false when the task had already reached a terminal outcome.
func (f *Future) Cancel() bool {
	if !f.finish(model.StatusCancelled, nil, ErrCancelled) {
		return false
	}
	f.cancel()
	return true
}

// Start moves a pending task to running. It reports false when the task
// must not run: it already finished, or it was interrupted before it could
// start, in which case it resolves to ErrNotRun.
func (f *Future) Start() bool {
	f.notifyMu.Lock()

	f.mu.Lock()
	if f.status != model.StatusPending {
		f.mu.Unlock()
		f.notifyMu.Unlock()
		return false
	}
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		f.notifyMu.Unlock()
		f.Discard()
		return false
	}
	f.status = model.StatusRunning
	f.startedAt = time.Now().UTC()
	ev := f.eventLocked()
	f.mu.Unlock()

	f.notify(ev)
	f.notifyMu.Unlock()
	return true
}

// Complete records the outcome of the task body. An error caused by the
// task's own context being cancelled is recorded as a cancellation. Complete
// reports false if the task had already reached a terminal outcome.
func (f *Future) Complete(v any, err error) bool {
	defer f.cancel()
	switch {
	case err == nil:
		return f.finish(model.StatusCompleted, v, nil)
	case f.ctx.Err() != nil && errors.Is(err, context.Canceled):
		return f.finish(model.StatusCancelled, nil, ErrCancelled)
	default:
		return f.finish(model.StatusFailed, nil, &TaskFailedError{TaskID: f.ID(), Cause: err})
	}
}

// Discard resolves a task that has not started with ErrNotRun. It reports
// false if the task already started or finished.
func (f *Future) Discard() bool {
	if !f.transition(notStarted, model.StatusCancelled, nil, ErrNotRun) {
		return false
	}
	f.cancel()
	return true
}

// Interrupt cancels the task's context without changing its status. A body
// that returns promptly with the context error is recorded as cancelled.
func (f *Future) Interrupt() {
	f.cancel()
}

// Announce emits the current status to the observer. Engines call it once
// after accepting a task and before making it visible to workers.
func (f *Future) Announce() {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	ev := f.eventLocked()
	f.mu.Unlock()

	f.notify(ev)
}

func notStarted(status string) bool { return status == model.StatusPending }

func unfinished(status string) bool { return !model.IsTerminal(status) }

func (f *Future) finish(status string, v any, err error) bool {
	return f.transition(unfinished, status, v, err)
}

// transition moves the future to a terminal status if allow accepts the
// current one.
func (f *Future) transition(allow func(string) bool, status string, v any, err error) bool {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	if !allow(f.status) {
		f.mu.Unlock()
		return false
	}
	f.status = status
	f.value = v
	f.err = err
	f.finishedAt = time.Now().UTC()
	ev := f.eventLocked()
	f.mu.Unlock()

	// Observers see the terminal event before waiters are released.
	f.notify(ev)
	close(f.done)
	return true
}

func (f *Future) eventLocked() Event {
	return Event{
		TaskID:      f.task.ID(),
		Name:        f.task.Name(),
		Status:      f.status,
		Err:         f.err,
		SubmittedAt: f.submittedAt,
		StartedAt:   f.startedAt,
		FinishedAt:  f.finishedAt,
	}
}

func (f *Future) notify(ev Event) {
	if f.observer != nil {
		f.observer.Observe(ev)
	}
}

// WaitError converts the end of a waiting context into the executor error
// taxonomy: a passed deadline is ErrTimedOut, anything else is ErrCancelled.
func WaitError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimedOut
	}
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}
