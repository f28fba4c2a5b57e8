package pool

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/seantiz/lunar/internal/task"
)

// DefaultName is the engine name used when WithName is not given.
const DefaultName = "pool"

// FaultInfo describes a failure of a task submitted through Execute.
type FaultInfo struct {
	Engine string
	TaskID string
	Name   string
	Err    error
}

// FaultHandler receives failures of fire-and-forget tasks.
type FaultHandler func(ctx context.Context, info FaultInfo)

type config struct {
	name      string
	workers   int
	queueSize int
	delay     time.Duration
	logger    *slog.Logger
	onFault   FaultHandler
	observers task.Observers
}

// Option configures a Pool.
type Option func(*config)

func defaultConfig() config {
	return config{
		name:    DefaultName,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

// WithName sets the engine name used in logs, metrics and capabilities.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithWorkers sets the number of concurrent workers. Values below 1 are
// treated as 1, which runs tasks sequentially.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = max(n, 1) }
}

// WithQueueSize bounds the number of queued, not yet started tasks.
// Zero means unbounded.
func WithQueueSize(n int) Option {
	return func(c *config) { c.queueSize = max(n, 0) }
}

// WithDelay inserts an artificial delay between task start and body
// execution. Cancellation during the delay prevents the body from running.
func WithDelay(d time.Duration) Option {
	return func(c *config) { c.delay = max(d, 0) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFaultHandler sets the hook that receives failures of tasks submitted
// through Execute. By default they are logged at error level.
func WithFaultHandler(h FaultHandler) Option {
	return func(c *config) { c.onFault = h }
}

// WithObserver appends an observer of task status events.
func WithObserver(o task.Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}
