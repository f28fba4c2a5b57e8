package engine

import (
	"context"

	"github.com/seantiz/lunar/internal/task"
)

// Engine is the interface that all execution engines must implement. Engines
// own every piece of mutable state: queues, workers and per-task status.
type Engine interface {
	// Submit accepts t for asynchronous execution and returns its Future.
	// It never blocks on the task itself. Submissions made after Shutdown
	// fail with an error wrapping task.ErrRejected.
	Submit(t task.Task) (*task.Future, error)

	// Execute accepts t for fire-and-forget execution. The returned error is
	// only ever a rejection; failures of t itself go to the engine's fault hook.
	Execute(t task.Task) error

	// Shutdown stops accepting new work and lets accepted tasks finish.
	// Calling it more than once is a no-op.
	Shutdown()

	// ShutdownNow behaves like Shutdown, discards queued tasks and interrupts
	// running ones. It returns the tasks discarded without running.
	ShutdownNow() []task.Task

	// State reports the current lifecycle state without blocking.
	State() State

	// AwaitTermination blocks until the engine terminates or ctx ends and
	// reports whether termination was observed.
	AwaitTermination(ctx context.Context) bool

	// Capabilities describes the engine.
	Capabilities() Capabilities
}

// Capabilities describes an engine's configuration.
type Capabilities struct {
	Name      string `json:"name"`
	Workers   int    `json:"workers"`
	QueueSize int    `json:"queue_size"`
	Ordering  string `json:"ordering"`
}

// Ordering values reported in Capabilities.
const (
	OrderingFIFO = "fifo"
)
