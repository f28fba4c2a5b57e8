package pool

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/seantiz/lunar/internal/engine"
	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/task"
)

// Compile-time interface satisfaction check.
var _ engine.Engine = (*Pool)(nil)

// item is one queued task. detached marks tasks accepted through Execute,
// whose failures go to the fault hook.
type item struct {
	f        *task.Future
	detached bool
}

// Pool is a fixed-size worker pool implementing engine.Engine.
// Tasks are started in submission order.
type Pool struct {
	cfg    config
	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	state   engine.State
	queue   []item
	running map[string]*task.Future

	// admitting counts admitted tasks not yet appended to the queue.
	admitting int

	wg         sync.WaitGroup
	terminated chan struct{}
}

// New creates a pool and starts its workers.
func New(opts ...Option) *Pool {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	p := &Pool{
		cfg:        cfg,
		logger:     cfg.logger.With("engine", cfg.name),
		running:    make(map[string]*task.Future),
		terminated: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	initMetrics(cfg.name)

	for range cfg.workers {
		p.wg.Go(p.work)
	}
	go p.reap()

	return p
}

// Submit accepts t and returns its Future.
func (p *Pool) Submit(t task.Task) (*task.Future, error) {
	return p.enqueue(t, false)
}

// Execute accepts t without handing back a Future. If t fails, the failure
// is passed to the fault handler.
func (p *Pool) Execute(t task.Task) error {
	_, err := p.enqueue(t, true)
	return err
}

// Shutdown stops accepting tasks. Queued and running tasks still complete.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != engine.Running {
		return
	}
	p.state = engine.ShuttingDown
	p.cond.Broadcast()
	p.logger.Info("pool shutting down", "queued", len(p.queue), "running", len(p.running))
}

// ShutdownNow stops accepting tasks, discards the queue and interrupts
// running tasks. Discarded tasks resolve to task.ErrNotRun and are returned.
// It waits for in-flight admissions, so observers must not call it.
func (p *Pool) ShutdownNow() []task.Task {
	p.mu.Lock()
	if p.state == engine.Running {
		p.state = engine.ShuttingDown
	}
	for p.admitting > 0 {
		p.cond.Wait()
	}
	pending := p.queue
	p.queue = nil
	running := make([]*task.Future, 0, len(p.running))
	for _, f := range p.running {
		running = append(running, f)
	}
	queuedTasks.WithLabelValues(p.cfg.name).Set(0)
	p.cond.Broadcast()
	p.mu.Unlock()

	discarded := make([]task.Task, 0, len(pending)+len(running))
	interrupted := 0
	for _, f := range running {
		// A worker may have taken the task without starting it yet.
		if f.Discard() {
			discarded = append(discarded, f.Task())
			continue
		}
		f.Interrupt()
		interrupted++
	}
	for _, it := range pending {
		if it.f.Discard() {
			discarded = append(discarded, it.f.Task())
		}
	}

	p.logger.Info("pool shut down now", "discarded", len(discarded), "interrupted", interrupted)
	return discarded
}

// State reports the lifecycle state.
func (p *Pool) State() engine.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// AwaitTermination blocks until every worker has exited after shutdown, or
// until ctx ends.
func (p *Pool) AwaitTermination(ctx context.Context) bool {
	select {
	case <-p.terminated:
		return true
	default:
	}
	select {
	case <-p.terminated:
		return true
	case <-ctx.Done():
		return false
	}
}

// Capabilities describes the pool configuration.
func (p *Pool) Capabilities() engine.Capabilities {
	return engine.Capabilities{
		Name:      p.cfg.name,
		Workers:   p.cfg.workers,
		QueueSize: p.cfg.queueSize,
		Ordering:  engine.OrderingFIFO,
	}
}

func (p *Pool) enqueue(t task.Task, detached bool) (*task.Future, error) {
	if !t.Valid() {
		return nil, task.ErrNilTask
	}

	p.mu.Lock()
	err := p.admitLocked()
	if err == nil {
		p.admitting++
	}
	p.mu.Unlock()
	if err != nil {
		rejectedTotal.WithLabelValues(p.cfg.name).Inc()
		return nil, err
	}

	// The slot is reserved, so the task is announced only once it is
	// certain to reach the queue.
	f := task.NewFuture(t, task.ObserverFunc(p.observe))
	f.Announce()

	p.mu.Lock()
	p.admitting--
	p.queue = append(p.queue, item{f: f, detached: detached})
	queuedTasks.WithLabelValues(p.cfg.name).Set(float64(len(p.queue)))
	p.cond.Broadcast()
	p.mu.Unlock()

	return f, nil
}

func (p *Pool) admitLocked() error {
	switch {
	case p.state == engine.Terminated:
		return task.ErrTerminated
	case p.state == engine.ShuttingDown:
		return task.ErrShutdown
	case p.cfg.queueSize > 0 && len(p.queue)+p.admitting >= p.cfg.queueSize:
		return task.ErrQueueFull
	}
	return nil
}

// work is the worker loop. It exits once shutdown was requested and the
// queue is drained.
func (p *Pool) work() {
	for {
		it, ok := p.next()
		if !ok {
			return
		}
		p.run(it)
	}
}

func (p *Pool) next() (item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && (p.state == engine.Running || p.admitting > 0) {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return item{}, false
	}

	it := p.queue[0]
	p.queue[0] = item{}
	p.queue = p.queue[1:]
	p.running[it.f.ID()] = it.f
	queuedTasks.WithLabelValues(p.cfg.name).Set(float64(len(p.queue)))
	return it, true
}

func (p *Pool) run(it item) {
	f := it.f
	defer p.release(f)

	if !f.Start() {
		return
	}

	active := activeTasks.WithLabelValues(p.cfg.name)
	active.Inc()
	defer active.Dec()

	ctx := f.Context()
	if p.cfg.delay > 0 {
		timer := time.NewTimer(p.cfg.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if ctx.Err() != nil {
		f.Complete(nil, ctx.Err())
		return
	}

	v, err := p.invoke(f)
	f.Complete(v, err)
	if it.detached && f.Status() == model.StatusFailed {
		p.fault(f, err)
	}
}

// invoke runs the task body, converting a panic into a *task.PanicError.
func (p *Pool) invoke(f *task.Future) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &task.PanicError{Value: r, Stack: debug.Stack()}
			p.logger.Error("task panicked", "task_id", f.ID(), "task_name", f.Task().Name(), "panic", r)
		}
	}()
	return f.Task().Run(f.Context())
}

func (p *Pool) release(f *task.Future) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, f.ID())
}

// reap marks the pool terminated once every worker has exited.
func (p *Pool) reap() {
	p.wg.Wait()

	p.mu.Lock()
	p.state = engine.Terminated
	p.mu.Unlock()

	p.logger.Info("pool terminated")
	close(p.terminated)
}

// observe updates metrics, drops cancelled tasks from the queue and forwards
// the event to the configured observers.
func (p *Pool) observe(ev task.Event) {
	if model.IsTerminal(ev.Status) {
		tasksTotal.WithLabelValues(p.cfg.name, ev.Status).Inc()
		if !ev.StartedAt.IsZero() {
			taskDuration.WithLabelValues(p.cfg.name).Observe(ev.FinishedAt.Sub(ev.StartedAt).Seconds())
		}
	}
	if ev.Status == model.StatusCancelled && ev.StartedAt.IsZero() {
		p.dequeue(ev.TaskID)
	}
	p.cfg.observers.Observe(ev)
}

func (p *Pool) dequeue(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.queue {
		if it.f.ID() == id {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			queuedTasks.WithLabelValues(p.cfg.name).Set(float64(len(p.queue)))
			return
		}
	}
}

func (p *Pool) fault(f *task.Future, err error) {
	faultsTotal.WithLabelValues(p.cfg.name).Inc()
	info := FaultInfo{
		Engine: p.cfg.name,
		TaskID: f.ID(),
		Name:   f.Task().Name(),
		Err:    err,
	}
	if p.cfg.onFault == nil {
		p.logger.Error("task failed", "task_id", info.TaskID, "task_name", info.Name, "error", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("fault handler panicked", "task_id", info.TaskID, "panic", r)
		}
	}()
	p.cfg.onFault(context.Background(), info)
}
