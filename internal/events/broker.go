package events

import (
	"sync"
	"time"

	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/task"
)

// subscriberBufferSize is the channel buffer for each event subscriber.
// Events are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// DefaultRetention is how long a finished topic is kept as a marker.
const DefaultRetention = 10 * time.Minute

// Compile-time interface satisfaction check.
var _ task.Observer = (*Broker)(nil)

// Broker manages per-task event streaming to subscribers.
// It is safe for concurrent use.
//
// Finished topics are retained as markers so that late subscribers receive a
// closed channel instead of blocking forever. Markers older than the
// retention are evicted on a later Close.
type Broker struct {
	mu        sync.Mutex
	topics    map[string]*topic
	retention time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type topic struct {
	subs     map[int]chan task.Event
	nextID   int
	closed   bool
	closedAt time.Time
}

// Option configures a Broker.
type Option func(*Broker)

// WithRetention sets how long finished topics are kept. Non-positive values
// are ignored.
func WithRetention(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.retention = d
		}
	}
}

// NewBroker creates a new event broker.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		topics:    make(map[string]*topic),
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.lastSweep = b.now()
	return b
}

// Observe publishes ev and closes the task's stream once ev is terminal.
func (b *Broker) Observe(ev task.Event) {
	b.Publish(ev.TaskID, ev)
	if model.IsTerminal(ev.Status) {
		b.Close(ev.TaskID)
	}
}

// Subscribe returns a channel that receives events for the given task and an
// unsubscribe function. If the task already finished, the returned channel
// is immediately closed.
func (b *Broker) Subscribe(taskID string) (<-chan task.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[taskID]
	if !ok {
		t = &topic{subs: make(map[int]chan task.Event)}
		b.topics[taskID] = t
	}

	ch := make(chan task.Event, subscriberBufferSize)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish sends an event to all subscribers of the given task.
// Events are dropped for subscribers whose buffers are full.
func (b *Broker) Publish(taskID string, ev task.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[taskID]
	if !ok || t.closed {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close signals that no more events will be published for the given task.
// All subscriber channels are closed and future Subscribe calls return a
// closed channel.
func (b *Broker) Close(taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	t, ok := b.topics[taskID]
	if !ok {
		t = &topic{subs: make(map[int]chan task.Event)}
		b.topics[taskID] = t
	}
	if !t.closed {
		t.closed = true
		t.closedAt = now
	}
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}

	if now.Sub(b.lastSweep) >= b.retention {
		b.sweepLocked(now)
	}
}

// sweepLocked drops closed topics older than the retention.
func (b *Broker) sweepLocked(now time.Time) {
	for id, t := range b.topics {
		if t.closed && now.Sub(t.closedAt) >= b.retention {
			delete(b.topics, id)
		}
	}
	b.lastSweep = now
}

// Len reports the number of tracked topics, finished markers included.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}
