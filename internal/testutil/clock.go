package testutil

import "sync"

// StepClock numbers pipeline events for tests.
//
// It satisfies pipeline.Clock like the production clock, but can be rewound
// so one test can replay several runs and compare their event sequences.
//
// Thread-safety: All methods are safe for concurrent use.
type StepClock struct {
	mu  sync.Mutex
	seq int64
}

// NewStepClock returns a clock whose first Next is 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next advances the clock and returns the new sequence number.
func (c *StepClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last number handed out, or 0.
func (c *StepClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Rewind sets the clock back to zero.
func (c *StepClock) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
