package trace

import "sync/atomic"

// Clock is a monotonic logical clock for trace ordering.
//
// Every recorded event is stamped with a strictly increasing seq number.
// Wall-clock timestamps are never used for ordering: two events recorded by
// different goroutines must still compare deterministically, and golden
// trace files must be byte-stable across machines.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
