package apartment

import (
	"sync"
)

// Dispatcher decides where a completion's continuations run.
//
// The harness ships three policies:
//   - Inline: on the completing call's own stack, before it returns
//   - Detached: on a fresh goroutine
//   - *Pump: posted to a pump, executed by its owning goroutine
//
// The policy is an explicit value carried by the Completion. There is no
// ambient per-goroutine context to consult; tests choose the policy when
// they construct the operation, which is what makes inlining behavior
// provable rather than incidental.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs continuations synchronously on the dispatching goroutine.
var Inline Dispatcher = inlineDispatcher{}

// Detached runs each continuation on its own goroutine.
var Detached Dispatcher = detachedDispatcher{}

type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(fn func()) { fn() }

type detachedDispatcher struct{}

func (detachedDispatcher) Dispatch(fn func()) { go fn() }

// Completion is a one-shot handle for an in-flight asynchronous operation.
//
// Exactly one of Complete or Fail settles it; later settles are ignored
// (first outcome wins). Continuations registered with OnDone run through the
// completion's dispatch policy, in registration order, each receiving the
// terminal error (nil on success).
//
// Thread-safety model:
//   - Complete(), Fail(), OnDone(), Err(), Settled(): safe from any goroutine
//   - Done(): the returned channel closes when the completion settles
type Completion struct {
	mu            sync.Mutex
	settled       bool
	err           error
	continuations []func(error)

	disp Dispatcher
	done chan struct{}
}

// NewCompletion creates an unsettled completion with the given dispatch
// policy. A nil dispatcher means Inline.
func NewCompletion(d Dispatcher) *Completion {
	if d == nil {
		d = Inline
	}
	return &Completion{
		disp: d,
		done: make(chan struct{}),
	}
}

// Complete settles the completion successfully and dispatches its
// continuations. No-op if already settled.
func (c *Completion) Complete() {
	c.settle(nil)
}

// Fail settles the completion with err and dispatches its continuations.
// The error value is stored verbatim so callers can match it with errors.Is
// after it crosses goroutines. A nil err settles successfully.
// No-op if already settled.
func (c *Completion) Fail(err error) {
	c.settle(err)
}

// Done returns a channel that is closed when the completion settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the terminal error. Valid once Done is closed; nil before the
// completion settles and after a successful one.
func (c *Completion) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Settled reports whether the completion has a terminal outcome.
func (c *Completion) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// OnDone registers a continuation. If the completion is already settled the
// continuation dispatches immediately; with the Inline policy that means it
// runs on the caller's stack before OnDone returns.
func (c *Completion) OnDone(fn func(error)) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if !c.settled {
		c.continuations = append(c.continuations, fn)
		c.mu.Unlock()
		return
	}
	err := c.err
	c.mu.Unlock()

	c.disp.Dispatch(func() { fn(err) })
}

// settle records the terminal outcome and dispatches continuations in
// registration order. Dispatch happens outside the lock: with the Inline
// policy continuations run on the settling goroutine's own stack, and they
// must be free to call back into the completion.
func (c *Completion) settle(err error) {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return // first outcome wins
	}
	c.settled = true
	c.err = err
	pending := c.continuations
	c.continuations = nil
	c.mu.Unlock()

	close(c.done)
	for _, fn := range pending {
		fn := fn
		c.disp.Dispatch(func() { fn(err) })
	}
}
