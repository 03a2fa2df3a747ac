package pipeline

import (
	"sync"
	"sync/atomic"
)

// Clock stamps run events with increasing sequence numbers.
type Clock interface {
	Next() int64
}

// logicalClock is the default Clock: a monotonic counter starting at 0, so
// event order never depends on wall time.
type logicalClock struct {
	seq atomic.Int64
}

func (c *logicalClock) Next() int64 { return c.seq.Add(1) }

// EventKind identifies what an Event records.
type EventKind string

// Event kinds.
const (
	EventStageStarted EventKind = "stage_started"
	EventStepApplied  EventKind = "step_applied"
	EventVerified     EventKind = "verified"
	EventRunFinished  EventKind = "run_finished"
)

// Event is one observable moment of a run, delivered in order.
type Event struct {
	Seq   int64     `json:"seq"`
	RunID string    `json:"run_id"`
	Kind  EventKind `json:"kind"`
	Stage Stage     `json:"stage,omitempty"`
	Step  int       `json:"step,omitempty"` // 1-based main sequence position
	Pass  string    `json:"pass,omitempty"`
	OK    bool      `json:"ok,omitempty"` // verification outcome
	Error string    `json:"error,omitempty"`
	State State     `json:"state,omitempty"` // final state, on run_finished
}

// Observer receives the events of every run an Executor performs.
// Observe is called synchronously from the executing goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// EventLog is an Observer that keeps every event in memory.
//
// Thread-safety: EventLog is safe for concurrent use, so one log may observe
// several concurrent runs.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

// Observe implements Observer.
func (l *EventLog) Observe(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// ForRun returns the events of one run.
func (l *EventLog) ForRun(runID string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}
