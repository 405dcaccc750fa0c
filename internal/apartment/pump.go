package apartment

import (
	"log/slog"
	"time"
)

// Trace event kinds emitted by the pump to its TraceSink.
const (
	TracePost      = "post"       // callback enqueued
	TracePostDrop  = "post_drop"  // callback rejected, pump closed
	TraceExecute   = "execute"    // callback executed by the owner
	TraceFramePush = "frame_push" // frame activation entered
	TraceFrameStop = "frame_stop" // stop requested on a frame
	TraceFramePop  = "frame_pop"  // frame activation returned
)

// TraceSink receives pump lifecycle events. Implementations must be safe for
// concurrent use: posts are recorded from arbitrary goroutines.
type TraceSink interface {
	Record(kind string, goroutine uint64, note string)
}

// Pump is a synchronization context: a FIFO queue of posted callbacks owned
// by exactly one goroutine, drained inside nested pump frames.
//
// Thread-safety model:
//   - Post(): safe from any goroutine, never blocks the poster
//   - Push(), Drain(): confined to the owning goroutine
//   - Close(): safe from any goroutine
//
// INVARIANTS:
//   - callbacks execute strictly in post order relative to one pump
//   - only the owning goroutine dequeues and executes
//   - a stopped frame returns without cancelling queued callbacks
type Pump struct {
	owner  uint64
	queue  *callbackQueue
	logger *slog.Logger
	sink   TraceSink

	// Owner-confined state below; no lock needed.
	frames   []*Frame
	timeout  time.Duration // bound for one top-level pumped run, 0 = unbounded
	deadline time.Time     // set while a top-level frame is active
}

// NewPump creates a pump bound to the calling goroutine. Only that goroutine
// may push frames or drain; any goroutine may post.
//
// Apartment workers create their pump on the worker goroutine during
// startup. Constructing one directly is useful in tests that drive the pump
// from the test goroutine itself.
func NewPump(opts ...Option) *Pump {
	return newPumpWithConfig(newConfig(opts), GoroutineID())
}

func newPumpWithConfig(cfg config, owner uint64) *Pump {
	return &Pump{
		owner:   owner,
		queue:   newCallbackQueue(cfg.queueCapacity),
		logger:  cfg.logger,
		sink:    cfg.sink,
		timeout: cfg.runTimeout,
	}
}

// Owner returns the ID of the goroutine that owns this pump.
func (p *Pump) Owner() uint64 {
	return p.owner
}

// Post enqueues a callback for execution by the owning goroutine.
// Thread-safe: may be called from any goroutine. Never blocks the poster.
//
// Returns false if the pump has been closed; the rejected callback is traced
// and dropped, not run.
func (p *Pump) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	if !p.queue.Enqueue(fn) {
		p.record(TracePostDrop, "pump closed")
		p.logger.Debug("post dropped, pump closed", "owner", p.owner)
		return false
	}
	p.record(TracePost, "")
	return true
}

// Dispatch implements Dispatcher by posting the callback. A pump used as a
// completion's dispatch policy defers continuations to the owning goroutine.
func (p *Pump) Dispatch(fn func()) {
	p.Post(fn)
}

// NewFrame creates a frame for this pump. The frame is inert until pushed.
func (p *Pump) NewFrame() *Frame {
	return &Frame{pump: p}
}

// Push activates the frame and blocks the owning goroutine, dequeuing and
// executing posted callbacks in FIFO order until the frame is stopped.
//
// Push returns a not-owner error when called from any other goroutine, and a
// closed error if the pump was torn down while the frame was still active.
// When the pump carries a run timeout, the deadline spans one top-level
// activation including every frame nested beneath it; expiry stops all
// active frames and surfaces a timeout error.
func (p *Pump) Push(f *Frame) error {
	if f == nil {
		return NewWorkloadError("nil frame pushed", nil)
	}
	if id := GoroutineID(); id != p.owner {
		return NewNotOwnerError("pump push", p.owner, id)
	}
	if f.pump != p {
		return NewWorkloadError("frame pushed onto a foreign pump", nil)
	}
	if f.active.Swap(true) {
		return NewWorkloadError("frame is already active", nil)
	}
	defer f.active.Store(false)

	if len(p.frames) == 0 && p.timeout > 0 {
		p.deadline = time.Now().Add(p.timeout)
	}
	if len(p.frames) > 0 {
		f.parent = p.frames[len(p.frames)-1]
	}
	p.frames = append(p.frames, f)
	p.record(TraceFramePush, "")
	defer func() {
		p.frames = p.frames[:len(p.frames)-1]
		if len(p.frames) == 0 {
			p.deadline = time.Time{}
		}
		p.record(TraceFramePop, "")
	}()

	var deadlineC <-chan time.Time
	if !p.deadline.IsZero() {
		timer := time.NewTimer(time.Until(p.deadline))
		defer timer.Stop()
		deadlineC = timer.C
	}

	for !f.Stopped() {
		fn, ok := p.queue.TryDequeue()
		if ok {
			p.execute(fn)
			continue
		}

		// No callback ready - wait for a post, a poke, or the deadline.
		select {
		case <-deadlineC:
			p.stopAll()
			p.logger.Debug("pump deadline elapsed", "owner", p.owner, "timeout", p.timeout)
			return NewTimeoutError("pump deadline elapsed before frame stopped")

		case <-p.queue.Wait():
			if p.queue.Closed() && p.queue.Len() == 0 {
				return NewClosedError("pump closed while frame active")
			}
		}
	}

	return nil
}

// Drain executes queued callbacks until the queue is empty, without a frame.
// Confined to the owning goroutine.
//
// The allocation probe uses this between measurement and collection so that
// objects referenced only by still-queued callbacks are released before the
// retained-bytes reading.
func (p *Pump) Drain() error {
	if id := GoroutineID(); id != p.owner {
		return NewNotOwnerError("pump drain", p.owner, id)
	}
	for {
		fn, ok := p.queue.TryDequeue()
		if !ok {
			return nil
		}
		p.execute(fn)
	}
}

// Depth returns the number of active frames. Owner-confined.
func (p *Pump) Depth() int {
	return len(p.frames)
}

// Pending returns the number of queued callbacks.
// Thread-safe: may be called from any goroutine.
func (p *Pump) Pending() int {
	return p.queue.Len()
}

// Close tears the pump down: queued callbacks are dropped and future posts
// are rejected. Safe from any goroutine; a blocked Push observes the close
// and returns a closed error.
func (p *Pump) Close() {
	p.queue.Close()
}

// execute runs one callback on the owning goroutine. Panics are not
// recovered here: they unwind to the worker's recovery point so the whole
// invocation fails with the panic as its fault.
func (p *Pump) execute(fn func()) {
	p.record(TraceExecute, "")
	fn()
}

// stopAll stops every active frame, bottom up. Owner-confined; used when the
// run deadline elapses so enclosing frames do not keep pumping a run that
// has already been reported as timed out.
func (p *Pump) stopAll() {
	for _, f := range p.frames {
		f.Stop()
	}
}

func (p *Pump) record(kind, note string) {
	if p.sink == nil {
		return
	}
	p.sink.Record(kind, GoroutineID(), note)
}
