package apartment

import (
	"sync"
)

// callbackQueue is a thread-safe FIFO queue of posted callbacks.
//
// The queue is unbounded so that callbacks which re-post themselves (or post
// cascades of follow-on work) never block the posting goroutine.
//
// Thread-safety is provided for external posting from any goroutine while
// the owning goroutine dequeues inside a pump frame.
//
// The queue uses a channel for signaling so the pump loop can wait for work
// with select (keeps deadline handling and frame stops from hanging).
type callbackQueue struct {
	mu        sync.Mutex
	callbacks []func()
	closed    bool
	signal    chan struct{} // Signals availability (buffered, size 1)
}

// newCallbackQueue creates an empty callback queue.
func newCallbackQueue(capacity int) *callbackQueue {
	return &callbackQueue{
		callbacks: make([]func(), 0, capacity),
		signal:    make(chan struct{}, 1),
	}
}

// Enqueue adds a callback to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *callbackQueue) Enqueue(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.callbacks = append(q.callbacks, fn)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (nil, false) if the queue is empty.
func (q *callbackQueue) TryDequeue() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.callbacks) == 0 {
		return nil, false
	}

	fn := q.callbacks[0]

	// CRITICAL: Nil out the slot so the closure (and everything it captures)
	// becomes collectable once executed. Without this, the underlying array
	// retains references until reallocated, which the allocation probe would
	// report as a leak of the harness itself.
	q.callbacks[0] = nil

	if len(q.callbacks) == 1 {
		// Last element - reset to empty slice with original capacity
		q.callbacks = q.callbacks[:0]
	} else {
		q.callbacks = q.callbacks[1:]
	}

	return fn, true
}

// Wait returns a channel that signals when callbacks may be available.
// Use with select alongside deadline and stop conditions:
//
//	select {
//	case <-deadline:
//	    ...
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *callbackQueue) Wait() <-chan struct{} {
	return q.signal
}

// Poke wakes a waiter without enqueuing anything. Used by Frame.Stop so a
// pump blocked on an empty queue re-checks its frame's stop flag.
// Safe to call after Close.
func (q *callbackQueue) Poke() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return // signal channel already closed, waiters are awake
	}

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Len returns the current queue length.
func (q *callbackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.callbacks)
}

// Closed reports whether Close has been called.
func (q *callbackQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more callbacks will be accepted. Remaining queued
// callbacks are dropped without running: by the time an apartment tears its
// pump down there is no frame left that could legally execute them.
// Wakes any blocked waiters by closing the signal channel.
func (q *callbackQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return // Already closed
	}

	q.closed = true
	q.callbacks = nil
	close(q.signal) // Wakes all waiters
}
