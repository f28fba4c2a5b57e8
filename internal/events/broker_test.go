package events_test

import (
	"testing"

	"github.com/seantiz/lunar/internal/events"
	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/task"
)

func ev(id, status string) task.Event {
	return task.Event{TaskID: id, Status: status}
}

func collect(ch <-chan task.Event) []string {
	var got []string
	for e := range ch {
		got = append(got, e.Status)
	}
	return got
}

func TestBrokerObserveStreamsUntilTerminal(t *testing.T) {
	b := events.NewBroker()
	ch, unsub := b.Subscribe("t1")
	defer unsub()

	b.Observe(ev("t1", model.StatusRunning))
	b.Observe(ev("t1", model.StatusCompleted))
	b.Observe(ev("t1", model.StatusFailed))

	got := collect(ch)
	want := []string{model.StatusRunning, model.StatusCompleted}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBrokerMultipleSubscribers(t *testing.T) {
	b := events.NewBroker()
	ch1, unsub1 := b.Subscribe("t1")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("t1")
	defer unsub2()

	b.Publish("t1", ev("t1", model.StatusRunning))
	b.Close("t1")

	got1, got2 := collect(ch1), collect(ch2)
	if len(got1) != 1 || got1[0] != model.StatusRunning {
		t.Errorf("subscriber 1 got %v", got1)
	}
	if len(got2) != 1 || got2[0] != model.StatusRunning {
		t.Errorf("subscriber 2 got %v", got2)
	}
}

func TestBrokerTopicsAreIndependent(t *testing.T) {
	b := events.NewBroker()
	ch1, unsub1 := b.Subscribe("t1")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("t2")
	defer unsub2()

	b.Observe(ev("t1", model.StatusCancelled))
	b.Observe(ev("t2", model.StatusRunning))
	b.Close("t2")

	if got := collect(ch1); len(got) != 1 || got[0] != model.StatusCancelled {
		t.Errorf("t1 got %v", got)
	}
	if got := collect(ch2); len(got) != 1 || got[0] != model.StatusRunning {
		t.Errorf("t2 got %v", got)
	}
}

func TestBrokerLateSubscriberGetsClosed(t *testing.T) {
	b := events.NewBroker()
	b.Observe(ev("t1", model.StatusCompleted))

	ch, unsub := b.Subscribe("t1")
	defer unsub()

	if _, ok := <-ch; ok {
		t.Error("late subscriber should get a closed channel")
	}
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := events.NewBroker()
	ch, unsub := b.Subscribe("t1")
	unsub()

	b.Publish("t1", ev("t1", model.StatusRunning))
	b.Close("t1")

	select {
	case e, ok := <-ch:
		if ok {
			t.Errorf("got unexpected event %+v after unsubscribe", e)
		}
	default:
	}
}

func TestBrokerSlowSubscriberDropsEvents(t *testing.T) {
	b := events.NewBroker()
	ch, unsub := b.Subscribe("t1")
	defer unsub()

	for range 200 {
		b.Publish("t1", ev("t1", model.StatusRunning))
	}
	b.Close("t1")

	if got := len(collect(ch)); got == 0 || got > 200 {
		t.Errorf("received %d events, want a bounded non-zero number", got)
	}
}

func TestBrokerPublishToUnknownTaskIsNoop(t *testing.T) {
	b := events.NewBroker()
	b.Publish("nonexistent", ev("nonexistent", model.StatusRunning))
	b.Close("nonexistent")
}
