package apartment

import (
	"sync/atomic"
)

// Frame is one activation of the pump loop, stoppable independently of any
// enclosing activation.
//
// Frames nest: a posted callback may push its own frame to wait for further
// asynchronous work, exactly as reentrant dispatcher loops do. The pump
// maintains an explicit frame stack; pushing and stopping are the only legal
// nesting discipline. A frame records its parent when pushed so diagnostics
// can show the nesting chain.
//
// Thread-safety model:
//   - Stop(): safe from any goroutine, idempotent
//   - Stopped(): safe from any goroutine
//   - pushing is confined to the pump's owning goroutine (see Pump.Push)
type Frame struct {
	pump    *Pump
	parent  *Frame // frame below this one on the stack, set at push time
	stopped atomic.Bool
	active  atomic.Bool
}

// Stop requests that the pump activation driving this frame return.
//
// Safe from any goroutine. Stopping does not cancel callbacks already in the
// queue: they simply do not run under this frame; an enclosing frame that is
// still active will pump them.
func (f *Frame) Stop() {
	if f.stopped.Swap(true) {
		return // already stopped
	}
	f.pump.record(TraceFrameStop, "")
	// Wake the owner if it is blocked waiting for work, so it notices the
	// stop flag without needing a callback to arrive.
	f.pump.queue.Poke()
}

// Stopped reports whether Stop has been called.
func (f *Frame) Stopped() bool {
	return f.stopped.Load()
}

// Parent returns the frame directly below this one on the pump's stack, or
// nil for a bottom frame or a frame that has not been pushed yet.
func (f *Frame) Parent() *Frame {
	return f.parent
}
