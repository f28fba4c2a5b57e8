package events

import (
	"strconv"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedBroker(retention time.Duration) (*Broker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBroker(WithRetention(retention))
	b.now = clock.now
	b.lastSweep = clock.now()
	return b, clock
}

func TestCloseEvictsExpiredMarkers(t *testing.T) {
	b, clock := newClockedBroker(time.Minute)

	b.Close("old")
	clock.advance(30 * time.Second)
	b.Close("recent")
	if b.Len() != 2 {
		t.Fatalf("Len() = %d before retention, want 2", b.Len())
	}

	clock.advance(45 * time.Second)
	b.Close("trigger")

	if _, ok := b.topics["old"]; ok {
		t.Error("marker older than retention was kept")
	}
	if _, ok := b.topics["recent"]; !ok {
		t.Error("marker within retention was evicted")
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d after sweep, want 2", b.Len())
	}
}

func TestSweepKeepsOpenTopics(t *testing.T) {
	b, clock := newClockedBroker(time.Minute)

	ch, unsub := b.Subscribe("live")
	defer unsub()
	b.Close("done")
	clock.advance(2 * time.Minute)
	b.Close("trigger")

	if _, ok := b.topics["live"]; !ok {
		t.Fatal("open topic was evicted")
	}
	if _, ok := b.topics["done"]; ok {
		t.Error("expired marker was kept")
	}
	select {
	case _, ok := <-ch:
		if !ok {
			t.Error("live subscriber channel was closed by the sweep")
		}
	default:
	}
}

func TestMarkerBoundUnderChurn(t *testing.T) {
	b, clock := newClockedBroker(time.Minute)

	for i := range 1000 {
		b.Close("task-" + strconv.Itoa(i))
		clock.advance(time.Second)
	}
	// At most two retention windows of markers survive.
	if got := b.Len(); got > 120 {
		t.Errorf("Len() = %d after churn, want at most 120", got)
	}
}

func TestRetentionOptionIgnoresNonPositive(t *testing.T) {
	b := NewBroker(WithRetention(0), WithRetention(-time.Second))
	if b.retention != DefaultRetention {
		t.Errorf("retention = %v, want %v", b.retention, DefaultRetention)
	}
}
