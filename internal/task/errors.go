package task

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrRejected is returned when work is submitted to an executor that is
	// not accepting it.
	ErrRejected = errors.New("task rejected")
	// ErrShutdown rejects submissions made after shutdown was requested.
	ErrShutdown = fmt.Errorf("%w: executor is shut down", ErrRejected)
	// ErrTerminated rejects submissions made after the executor terminated.
	ErrTerminated = fmt.Errorf("%w: executor terminated", ErrRejected)
	// ErrQueueFull rejects submissions when a bounded queue has no room.
	ErrQueueFull = fmt.Errorf("%w: queue is full", ErrRejected)

	// ErrCancelled is the outcome of a task cancelled before it produced a result.
	ErrCancelled = errors.New("task cancelled")
	// ErrNotRun is the outcome of a task discarded by ShutdownNow before it started.
	ErrNotRun = fmt.Errorf("%w: discarded before running", ErrCancelled)

	// ErrTimedOut is returned when a bounded wait elapses first.
	ErrTimedOut = errors.New("timed out")

	// ErrPending is returned by non-blocking result reads before the task is done.
	ErrPending = errors.New("task not done")

	// ErrNilTask is returned when a task has no body.
	ErrNilTask = errors.New("nil task")
	// ErrNoTasks is returned by bulk invocations given an empty task list.
	ErrNoTasks = errors.New("no tasks")
)

// TaskFailedError carries the fault raised by a task's own computation.
type TaskFailedError struct {
	TaskID string
	Cause  error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Cause)
}

func (e *TaskFailedError) Unwrap() error { return e.Cause }

// PanicError is the cause recorded when a task body panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// AggregateError is returned when every candidate of a bulk invocation failed.
// errors.Is and errors.As reach each individual cause.
type AggregateError struct {
	merr *multierror.Error
}

// NewAggregateError collects causes. Nil causes are skipped.
func NewAggregateError(causes ...error) *AggregateError {
	var merr *multierror.Error
	for _, c := range causes {
		if c != nil {
			merr = multierror.Append(merr, c)
		}
	}
	if merr == nil {
		merr = &multierror.Error{}
	}
	return &AggregateError{merr: merr}
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("all %d tasks failed: %s", e.merr.Len(), e.merr.Error())
}

// Errors returns the individual causes in submission order.
func (e *AggregateError) Errors() []error {
	return e.merr.WrappedErrors()
}

func (e *AggregateError) Unwrap() []error {
	return e.merr.WrappedErrors()
}
