package apartment

import (
	"sync"
)

// faultSlot captures the first failure observed during an invocation.
//
// It is write-once: the first non-nil error wins and later writes are
// dropped, so a cascade of secondary failures cannot mask the original
// fault. The slot is the only cross-goroutine mutable state in an
// invocation besides the pump queue; it is read by the initiating caller
// after the worker has been joined, so no lock is held at read time beyond
// the slot's own.
type faultSlot struct {
	mu    sync.Mutex
	err   error
	doneC chan struct{}
}

func newFaultSlot() *faultSlot {
	return &faultSlot{
		doneC: make(chan struct{}),
	}
}

// Set records err if the slot is still empty. Nil errors are ignored.
// Safe from any goroutine.
func (s *faultSlot) Set(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return // first failure wins
	}
	s.err = err
	close(s.doneC)
}

// Err returns the recorded failure, or nil if none was set.
// Safe from any goroutine.
func (s *faultSlot) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done returns a channel closed when a failure has been recorded.
func (s *faultSlot) Done() <-chan struct{} {
	return s.doneC
}
