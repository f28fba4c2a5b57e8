package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/seantiz/lunar/internal/task"
)

// Submit schedules c and returns its typed handle.
func Submit[R any](x *Executor, c task.Callable[R]) (*Handle[R], error) {
	return SubmitNamed(x, "", c)
}

// SubmitNamed is Submit with a task name for logs and records.
func SubmitNamed[R any](x *Executor, name string, c task.Callable[R]) (*Handle[R], error) {
	if c == nil {
		return nil, task.ErrNilTask
	}
	f, err := x.Submit(task.FromCallable(name, c))
	if err != nil {
		return nil, err
	}
	return newHandle[R](f), nil
}

// SubmitActionResult schedules a and returns a handle that yields result
// once a succeeds. If a fails the handle reports a's failure.
func SubmitActionResult[R any](x *Executor, a task.Action, result R) (*Handle[R], error) {
	if a == nil {
		return nil, task.ErrNilTask
	}
	return SubmitNamed(x, "", func(ctx context.Context) (R, error) {
		if err := a(ctx); err != nil {
			var zero R
			return zero, err
		}
		return result, nil
	})
}

// SubmitAll schedules every task in order and returns one handle per task in
// the same order. It does not wait for completion. If a submission is
// rejected, the handles submitted so far are cancelled and the error returned.
func SubmitAll[R any](x *Executor, tasks []task.Callable[R]) ([]*Handle[R], error) {
	handles := make([]*Handle[R], 0, len(tasks))
	for i, c := range tasks {
		h, err := Submit(x, c)
		if err != nil {
			cancelAll(handles)
			return nil, fmt.Errorf("submit task %d: %w", i, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// SubmitAllTimeout is SubmitAll where every task not done when timeout
// elapses is cancelled. It returns immediately.
func SubmitAllTimeout[R any](x *Executor, tasks []task.Callable[R], timeout time.Duration) ([]*Handle[R], error) {
	handles, err := SubmitAll(x, tasks)
	if err != nil {
		return nil, err
	}
	time.AfterFunc(timeout, func() { cancelAll(handles) })
	return handles, nil
}

// InvokeAll submits every task and waits until all are done. If ctx ends
// first, unfinished tasks are cancelled and the handles are returned along
// with task.ErrTimedOut (deadline) or task.ErrCancelled.
func InvokeAll[R any](ctx context.Context, x *Executor, tasks []task.Callable[R]) ([]*Handle[R], error) {
	handles, err := SubmitAll(x, tasks)
	if err != nil {
		return nil, err
	}
	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			cancelAll(handles)
			return handles, err
		}
	}
	return handles, nil
}

type outcome[R any] struct {
	index int
	value R
	err   error
}

// InvokeAny submits every task and returns the result of the first one to
// complete successfully. The remaining tasks are cancelled. If every task
// fails the error is a *task.AggregateError holding each cause in
// submission order.
func InvokeAny[R any](ctx context.Context, x *Executor, tasks []task.Callable[R]) (R, error) {
	var zero R
	if len(tasks) == 0 {
		return zero, task.ErrNoTasks
	}

	handles, err := SubmitAll(x, tasks)
	if err != nil {
		return zero, err
	}
	defer cancelAll(handles)

	results := make(chan outcome[R], len(handles))
	for i, h := range handles {
		go func() {
			<-h.Done()
			v, err := h.Result()
			results <- outcome[R]{index: i, value: v, err: err}
		}()
	}

	causes := make([]error, len(handles))
	for range handles {
		select {
		case o := <-results:
			if o.err == nil {
				return o.value, nil
			}
			causes[o.index] = o.err
		case <-ctx.Done():
			return zero, task.WaitError(ctx)
		}
	}
	return zero, task.NewAggregateError(causes...)
}

// InvokeAnyTimeout is InvokeAny bounded by timeout; it fails with
// task.ErrTimedOut if no task succeeds in time.
func InvokeAnyTimeout[R any](ctx context.Context, x *Executor, tasks []task.Callable[R], timeout time.Duration) (R, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return InvokeAny(ctx, x, tasks)
}

func cancelAll[R any](handles []*Handle[R]) {
	for _, h := range handles {
		h.Cancel()
	}
}
