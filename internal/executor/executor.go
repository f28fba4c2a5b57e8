package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/seantiz/lunar/internal/engine"
	"github.com/seantiz/lunar/internal/task"
)

// Executor forwards task submission and lifecycle control to an engine.
type Executor struct {
	engine engine.Engine
	logger *slog.Logger
}

// New creates an executor over e. It panics if e is nil.
func New(e engine.Engine, logger *slog.Logger) *Executor {
	if e == nil {
		panic("executor: nil engine")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		engine: e,
		logger: logger.With("engine", e.Capabilities().Name),
	}
}

// Engine returns the underlying engine.
func (x *Executor) Engine() engine.Engine { return x.engine }

// Capabilities describes the underlying engine, including its task ordering.
func (x *Executor) Capabilities() engine.Capabilities { return x.engine.Capabilities() }

// Submit schedules an already type-erased task.
func (x *Executor) Submit(t task.Task) (*task.Future, error) {
	if !t.Valid() {
		return nil, task.ErrNilTask
	}
	f, err := x.engine.Submit(t)
	if err != nil {
		x.logger.Debug("submission rejected", "task_id", t.ID(), "task_name", t.Name(), "error", err)
		return nil, err
	}
	return f, nil
}

// SubmitAction schedules a result-less unit of work.
func (x *Executor) SubmitAction(a task.Action) (*Handle[struct{}], error) {
	return x.SubmitActionNamed("", a)
}

// SubmitActionNamed is SubmitAction with a task name for logs and records.
func (x *Executor) SubmitActionNamed(name string, a task.Action) (*Handle[struct{}], error) {
	if a == nil {
		return nil, task.ErrNilTask
	}
	f, err := x.Submit(task.FromAction(name, a))
	if err != nil {
		return nil, err
	}
	return newHandle[struct{}](f), nil
}

// Execute submits a for fire-and-forget execution. The returned error only
// reports a rejected submission; failures of a itself go to the engine's
// fault hook.
func (x *Executor) Execute(a task.Action) error {
	if a == nil {
		return task.ErrNilTask
	}
	t := task.FromAction("", a)
	if err := x.engine.Execute(t); err != nil {
		x.logger.Debug("execution rejected", "task_id", t.ID(), "error", err)
		return err
	}
	return nil
}

// Shutdown stops accepting new work. Accepted tasks run to completion.
// Calling it again is a no-op.
func (x *Executor) Shutdown() {
	if x.engine.State().IsShutdown() {
		return
	}
	x.logger.Info("executor shutting down")
	x.engine.Shutdown()
}

// ShutdownNow stops accepting work, discards queued tasks and interrupts
// running ones. It returns the tasks that were discarded without running.
func (x *Executor) ShutdownNow() []task.Task {
	discarded := x.engine.ShutdownNow()
	x.logger.Info("executor shut down now", "discarded", len(discarded))
	return discarded
}

// State reports the engine's lifecycle state.
func (x *Executor) State() engine.State { return x.engine.State() }

// IsShutdown reports whether shutdown has been requested.
func (x *Executor) IsShutdown() bool { return x.engine.State().IsShutdown() }

// IsTerminated reports whether the engine terminated. It implies IsShutdown.
func (x *Executor) IsTerminated() bool { return x.engine.State().IsTerminated() }

// AwaitTermination blocks until the engine terminates or timeout elapses and
// reports whether termination was observed.
func (x *Executor) AwaitTermination(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return x.AwaitTerminationContext(ctx)
}

// AwaitTerminationContext is AwaitTermination bounded by ctx.
func (x *Executor) AwaitTerminationContext(ctx context.Context) bool {
	return x.engine.AwaitTermination(ctx)
}
