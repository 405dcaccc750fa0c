package apartment

import (
	"runtime"
	"time"

	"github.com/pkg/errors"
)

// joinGrace extends the join bound past the pump deadline so a run that
// timed out while pumping can still unwind and report through the fault
// slot instead of racing the join.
const joinGrace = 500 * time.Millisecond

// Apartment is one dedicated worker goroutine, pinned to its OS thread for
// its whole life, owning exactly one pump.
//
// An apartment is created lazily per invocation by Run or RunToCompletion
// and joined when the invocation finishes. It is never shared between
// concurrent invocations: isolation is what keeps re-entrancy bugs in the
// code under test from bleeding across tests.
type Apartment struct {
	cfg   config
	fault *faultSlot

	ready  chan struct{} // closed by the worker once the pump is bound
	joined chan struct{} // closed when the worker goroutine exits

	// Written by the worker before ready closes, stable afterwards.
	owner uint64
	pump  *Pump
}

// Run executes action on a fresh apartment worker and returns its failure,
// if any, with the original error identity preserved: errors.Is and
// errors.As reach the value the action produced, and the worker-side stack
// is attached for diagnosis.
//
// The action receives the apartment handle; the handle is the explicit
// "current context" lookup. Code that already holds a handle and runs on
// its worker can call Invoke to execute in place without a second spawn.
//
// Failure modes: a worker that never becomes ready yields a startup error
// immediately, never retried. A worker that outlives the run bound yields a
// timeout error; the goroutine itself cannot be killed and is left to
// finish in the background, which the leak checks in this repo's own tests
// will flag if it happens there.
func Run(action func(*Apartment) error, opts ...Option) error {
	cfg := newConfig(opts)
	a := &Apartment{
		cfg:    cfg,
		fault:  newFaultSlot(),
		ready:  make(chan struct{}),
		joined: make(chan struct{}),
	}

	go a.run(action)

	select {
	case <-a.ready:
	case <-time.After(cfg.startupWait):
		return NewStartupError("apartment worker not ready within " + cfg.startupWait.String())
	}

	if cfg.runTimeout > 0 {
		select {
		case <-a.joined:
		case <-time.After(cfg.runTimeout + joinGrace):
			return NewTimeoutError("apartment worker still running after " + cfg.runTimeout.String())
		}
	} else {
		<-a.joined
	}

	return a.fault.Err()
}

// run is the worker body. It pins the goroutine to its OS thread before any
// user code executes: apartment affinity is set at creation, not on first
// use. A single recovery point at the top converts panics from the action
// and from pumped callbacks into the invocation's fault.
func (a *Apartment) run(action func(*Apartment) error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(a.joined)
	defer func() {
		if a.pump != nil {
			a.pump.Close()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				a.fault.Set(errors.Wrap(err, "apartment worker caught panic"))
			} else {
				a.fault.Set(errors.Errorf("panic on apartment worker: %v", r))
			}
		}
	}()

	a.owner = GoroutineID()
	a.pump = newPumpWithConfig(a.cfg, a.owner)
	a.cfg.logger.Debug("apartment worker ready", "goroutine", a.owner)
	close(a.ready)

	if err := action(a); err != nil {
		a.fault.Set(errors.WithStack(err))
	}
}

// Pump returns the apartment's pump.
func (a *Apartment) Pump() *Pump {
	return a.pump
}

// Owner returns the worker goroutine's ID.
func (a *Apartment) Owner() uint64 {
	return a.owner
}

// Invoke marshals a call onto the apartment. Called from the worker itself
// it runs action in place, no nested spawn and no posting. Called from any
// other goroutine it posts the call and waits for the result; the call runs
// the next time the worker pumps.
//
// Panics inside a posted call are returned to the Invoke caller as errors;
// the apartment itself stays up.
func (a *Apartment) Invoke(action func() error) error {
	if GoroutineID() == a.owner {
		return action()
	}

	resC := make(chan error, 1)
	posted := a.pump.Post(func() {
		resC <- invokeSafely(action)
	})
	if !posted {
		return NewClosedError("invoke on a closed apartment")
	}

	select {
	case err := <-resC:
		return err
	case <-a.joined:
		// The worker may have executed the call just before exiting.
		select {
		case err := <-resC:
			return err
		default:
			return NewClosedError("apartment exited before the invoked call ran")
		}
	}
}

func invokeSafely(action func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = errors.Wrap(rerr, "invoked call caught panic")
			} else {
				err = errors.Errorf("panic in invoked call: %v", r)
			}
		}
	}()
	return action()
}
