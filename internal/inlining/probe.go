// Package inlining verifies where a completion's continuation executes: on
// the completing call's own stack before it returns (inlined), or deferred
// to another goroutine or a later pump iteration.
//
// Both checks operate on an already-in-flight completion plus a caller
// supplied completing action that forces it to settle. Every wait in this
// package is bounded: a continuation that never runs is reported as a
// timeout failure, never as a hung test.
package inlining

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/soloist/internal/apartment"
)

// DefaultWait bounds the continuation-side wait inside AssertNotInlined.
const DefaultWait = 500 * time.Millisecond

// DefaultRunTimeout bounds the whole check, covering the deadlock case
// where the continuation never runs at all.
const DefaultRunTimeout = 1000 * time.Millisecond

// Observation reports where a continuation ran relative to its scheduling
// call. It is ephemeral: consume it immediately, a deferred continuation
// may not have run yet when the observation is taken.
type Observation struct {
	// ScheduledOn is the goroutine that registered the continuation.
	ScheduledOn uint64

	// RanOn is the goroutine the continuation executed on. Zero if it had
	// not run when the observation was taken.
	RanOn uint64

	// BeforeReturn reports whether the continuation finished before the
	// completing action returned.
	BeforeReturn bool
}

type config struct {
	wait       time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		wait:       DefaultWait,
		runTimeout: DefaultRunTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a probe check.
type Option func(*config)

// WithWait sets the continuation-side bounded wait.
//
// Default: DefaultWait.
func WithWait(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.wait = d
		}
	}
}

// WithRunTimeout sets the bound for the whole check.
//
// Default: DefaultRunTimeout.
func WithRunTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.runTimeout = d
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Observe schedules a passive continuation on antecedent, invokes complete,
// and reports where and when the continuation ran. The continuation does
// nothing but record, so the antecedent's dispatch policy is observed
// undisturbed.
func Observe(antecedent *apartment.Completion, complete func(), opts ...Option) (Observation, error) {
	if antecedent == nil {
		return Observation{}, apartment.NewWorkloadError("nil antecedent", nil)
	}
	if complete == nil {
		return Observation{}, apartment.NewWorkloadError("nil completing action", nil)
	}
	cfg := newConfig(opts)

	obs := Observation{ScheduledOn: apartment.GoroutineID()}

	var mu sync.Mutex
	var ranOn uint64
	var ran bool
	antecedent.OnDone(func(error) {
		mu.Lock()
		ran = true
		ranOn = apartment.GoroutineID()
		mu.Unlock()
	})

	complete()

	mu.Lock()
	obs.BeforeReturn = ran
	obs.RanOn = ranOn
	mu.Unlock()

	cfg.logger.Debug("continuation observed",
		"scheduled_on", obs.ScheduledOn,
		"ran_on", obs.RanOn,
		"before_return", obs.BeforeReturn,
	)
	return obs, nil
}

// AssertInlined verifies that the continuation executes synchronously on
// the completing call's own goroutine, before that call returns.
//
// Failure modes: the continuation ran on a different goroutine, or had not
// finished by the time the completing action returned.
func AssertInlined(antecedent *apartment.Completion, complete func(), opts ...Option) error {
	obs, err := Observe(antecedent, complete, opts...)
	if err != nil {
		return err
	}

	if !obs.BeforeReturn {
		return apartment.NewAssertionError(
			fmt.Sprintf("continuation had not run when the completing action returned (scheduled on goroutine %d)", obs.ScheduledOn),
			nil,
		)
	}
	if obs.RanOn != obs.ScheduledOn {
		return apartment.NewAssertionError(
			fmt.Sprintf("continuation ran on goroutine %d, want the completing goroutine %d", obs.RanOn, obs.ScheduledOn),
			nil,
		)
	}
	return nil
}

// AssertNotInlined verifies that the continuation does not execute until
// the completing action has returned.
//
// The continuation blocks, bounded by the configured wait, for a signal
// that the completing action finished. An inlined continuation runs on the
// completing call's stack while the signal is still unset, so its wait
// elapses and the check fails. A continuation that never runs at all, the
// deadlock case, is converted into a timeout failure by the overall bound.
func AssertNotInlined(antecedent *apartment.Completion, complete func(), opts ...Option) error {
	if antecedent == nil {
		return apartment.NewWorkloadError("nil antecedent", nil)
	}
	if complete == nil {
		return apartment.NewWorkloadError("nil completing action", nil)
	}
	cfg := newConfig(opts)

	scheduledOn := apartment.GoroutineID()
	released := make(chan struct{})
	verdict := make(chan error, 1)

	antecedent.OnDone(func(error) {
		ranOn := apartment.GoroutineID()
		select {
		case <-released:
			verdict <- nil
		case <-time.After(cfg.wait):
			verdict <- apartment.NewAssertionError(
				fmt.Sprintf("continuation executed before the completing action returned (scheduled on goroutine %d, ran on %d)", scheduledOn, ranOn),
				nil,
			)
		}
	})

	complete()
	close(released)

	select {
	case err := <-verdict:
		if err != nil {
			cfg.logger.Debug("inlining assertion failed", "err", err)
		}
		return err
	case <-time.After(cfg.runTimeout):
		return apartment.NewTimeoutError(
			fmt.Sprintf("continuation never ran within %s of the completing action returning", cfg.runTimeout),
		)
	}
}
