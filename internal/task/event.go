package task

import "time"

// Event describes one status transition of a submitted task.
type Event struct {
	TaskID      string
	Name        string
	Status      string
	Err         error
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Observer receives task events. Events for a single task are delivered in
// transition order; events for different tasks may interleave. Observe must
// not block for long since it runs on the goroutine driving the transition.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Observers fans a single event out to several observers in order.
type Observers []Observer

// Observe delivers ev to every non-nil observer.
func (os Observers) Observe(ev Event) {
	for _, o := range os {
		if o != nil {
			o.Observe(ev)
		}
	}
}
