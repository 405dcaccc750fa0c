// Package soloist is a harness for testing apartment-threaded code: work
// bound to one dedicated goroutine that drains a serial callback pump.
//
// The root package re-exports the surface tests import directly. Workloads
// run to completion on a fresh worker per invocation. Probes check where a
// completion's continuation executes and whether a workload holds its
// allocation budget. Scenario files, recorded baselines and rule packs are
// driven through the soloist command instead of this package.
//
// Quick Start:
//
// Drive an asynchronous workload to completion on a dedicated worker:
//
//	err := soloist.RunToCompletion(func(p *soloist.Pump) *soloist.Completion {
//	    done := soloist.NewCompletion(soloist.Inline)
//	    p.Post(func() {
//	        // runs on the worker goroutine, in post order
//	        done.Complete()
//	    })
//	    return done
//	})
//
// Check where a continuation executes relative to the call that settles it:
//
//	done := soloist.NewCompletion(soloist.Detached)
//	err := soloist.AssertNotInlined(done, func() { done.Complete() })
//
// Hold a workload to an allocation budget of 64 bytes per iteration:
//
//	report, err := soloist.Measure(work, 64, soloist.WithIterations(200))
package soloist

import (
	"log/slog"
	"time"

	"github.com/roach88/soloist/internal/apartment"
	"github.com/roach88/soloist/internal/gcprobe"
	"github.com/roach88/soloist/internal/inlining"
)

// Core harness types. See the apartment package for full semantics.
type (
	// Apartment is one dedicated worker goroutine, pinned to its OS thread,
	// owning exactly one pump.
	Apartment = apartment.Apartment

	// Pump is a FIFO queue of posted callbacks owned by one goroutine and
	// drained inside nested frames.
	Pump = apartment.Pump

	// Frame is one nesting level of a pump; stopping it unwinds the drain
	// loop without cancelling queued callbacks.
	Frame = apartment.Frame

	// Completion settles exactly once and dispatches its continuations
	// through the dispatcher it was created with.
	Completion = apartment.Completion

	// Dispatcher decides where a completion's continuations run.
	Dispatcher = apartment.Dispatcher

	// Workload is an asynchronous operation under test: it receives the
	// worker's pump and returns the completion that settles when done.
	Workload = apartment.Workload

	// TraceSink receives pump lifecycle events.
	TraceSink = apartment.TraceSink

	// Error is a failure detected by the harness itself. Workload failures
	// keep their original identity and are never wrapped in this type.
	Error = apartment.Error

	// ErrorCode categorizes harness errors.
	ErrorCode = apartment.ErrorCode

	// Observation reports where a continuation ran relative to the call
	// that scheduled it.
	Observation = inlining.Observation

	// Report is the outcome of an allocation measurement.
	Report = gcprobe.Report

	// Sample holds the readings of one measurement attempt.
	Sample = gcprobe.Sample
)

// Option configures worker and pump construction.
type Option = apartment.Option

// ProbeOption configures a continuation placement check.
type ProbeOption = inlining.Option

// MeasureOption configures an allocation measurement.
type MeasureOption = gcprobe.Option

// Inline runs continuations synchronously on the settling goroutine.
var Inline = apartment.Inline

// Detached runs continuations on their own goroutine.
var Detached = apartment.Detached

// Harness error codes.
const (
	ErrCodeWorkload    = apartment.ErrCodeWorkload
	ErrCodeAssertion   = apartment.ErrCodeAssertion
	ErrCodeTimeout     = apartment.ErrCodeTimeout
	ErrCodeMeasurement = apartment.ErrCodeMeasurement
	ErrCodeStartup     = apartment.ErrCodeStartup
	ErrCodeNotOwner    = apartment.ErrCodeNotOwner
	ErrCodeClosed      = apartment.ErrCodeClosed
)

// Trace event kinds recorded through WithTraceSink.
const (
	TracePost      = apartment.TracePost
	TracePostDrop  = apartment.TracePostDrop
	TraceExecute   = apartment.TraceExecute
	TraceFramePush = apartment.TraceFramePush
	TraceFrameStop = apartment.TraceFrameStop
	TraceFramePop  = apartment.TraceFramePop
)

// Defaults, re-exported from the packages that own them.
const (
	DefaultRunTimeout  = apartment.DefaultRunTimeout
	DefaultStartupWait = apartment.DefaultStartupWait
	DefaultWait        = inlining.DefaultWait
	DefaultIterations  = gcprobe.DefaultIterations
	DefaultMaxAttempts = gcprobe.DefaultMaxAttempts
)

// Run executes action on a fresh apartment worker and returns its failure,
// if any, with the original error identity preserved.
func Run(action func(*Apartment) error, opts ...Option) error {
	return apartment.Run(action, opts...)
}

// RunToCompletion drives workload to completion on a fresh apartment,
// pumping posted continuations until the workload settles. A workload that
// never settles is reported as a timeout, bounded by DefaultRunTimeout
// unless overridden.
func RunToCompletion(workload Workload, opts ...Option) error {
	return apartment.RunToCompletion(workload, opts...)
}

// NewPump creates a pump bound to the calling goroutine, for tests that
// drive the pump themselves instead of spawning a worker.
func NewPump(opts ...Option) *Pump {
	return apartment.NewPump(opts...)
}

// NewCompletion creates an unsettled completion that dispatches its
// continuations through d.
func NewCompletion(d Dispatcher) *Completion {
	return apartment.NewCompletion(d)
}

// GoroutineID returns the current goroutine's ID, for affinity checks in
// tests and trace sinks.
func GoroutineID() uint64 {
	return apartment.GoroutineID()
}

// Observe schedules a passive continuation on antecedent, invokes complete,
// and reports where and when the continuation ran.
func Observe(antecedent *Completion, complete func(), opts ...ProbeOption) (Observation, error) {
	return inlining.Observe(antecedent, complete, opts...)
}

// AssertInlined verifies that the continuation executes synchronously on
// the completing call's own goroutine, before that call returns.
func AssertInlined(antecedent *Completion, complete func(), opts ...ProbeOption) error {
	return inlining.AssertInlined(antecedent, complete, opts...)
}

// AssertNotInlined verifies that the continuation does not execute until
// the completing action has returned. A continuation that never runs at all
// is reported as a timeout, not a hang.
func AssertNotInlined(antecedent *Completion, complete func(), opts ...ProbeOption) error {
	return inlining.AssertNotInlined(antecedent, complete, opts...)
}

// Measure runs workload repeatedly and checks heap growth per iteration
// against budget, in bytes. Failed attempts are retried up to the attempt
// limit before the measurement is reported failed.
func Measure(workload func(), budget int64, opts ...MeasureOption) (Report, error) {
	return gcprobe.Measure(workload, budget, opts...)
}

// MeasurePumped is Measure for pumped workloads: each iteration runs the
// workload to completion on a dedicated worker before sampling.
func MeasurePumped(workload Workload, budget int64, opts ...MeasureOption) (Report, error) {
	return gcprobe.MeasurePumped(workload, budget, opts...)
}

// IsTimeoutError reports whether err is a harness timeout.
func IsTimeoutError(err error) bool { return apartment.IsTimeoutError(err) }

// IsAssertionError reports whether err is a probe assertion failure.
func IsAssertionError(err error) bool { return apartment.IsAssertionError(err) }

// IsWorkloadError reports whether err is a workload contract violation.
func IsWorkloadError(err error) bool { return apartment.IsWorkloadError(err) }

// IsMeasurementError reports whether err is an exhausted allocation probe.
func IsMeasurementError(err error) bool { return apartment.IsMeasurementError(err) }

// IsStartupError reports whether err is a worker that never became ready.
func IsStartupError(err error) bool { return apartment.IsStartupError(err) }

// IsNotOwnerError reports whether err is an owner-confined pump operation
// called from a foreign goroutine.
func IsNotOwnerError(err error) bool { return apartment.IsNotOwnerError(err) }

// IsClosedError reports whether err is use of a pump after teardown.
func IsClosedError(err error) bool { return apartment.IsClosedError(err) }

// WithLogger sets the structured logger for a worker and its pump.
func WithLogger(logger *slog.Logger) Option {
	return apartment.WithLogger(logger)
}

// WithTraceSink attaches a sink that records pump lifecycle events.
func WithTraceSink(sink TraceSink) Option {
	return apartment.WithTraceSink(sink)
}

// WithRunTimeout bounds one top-level pumped run. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return apartment.WithRunTimeout(d)
}

// WithStartupWait bounds how long Run waits for the worker to become ready.
func WithStartupWait(d time.Duration) Option {
	return apartment.WithStartupWait(d)
}

// WithWait sets the continuation-side bounded wait of a placement check.
func WithWait(d time.Duration) ProbeOption {
	return inlining.WithWait(d)
}

// WithProbeRunTimeout bounds a whole placement check. Default:
// DefaultRunTimeout.
func WithProbeRunTimeout(d time.Duration) ProbeOption {
	return inlining.WithRunTimeout(d)
}

// WithProbeLogger sets the structured logger for a placement check.
func WithProbeLogger(logger *slog.Logger) ProbeOption {
	return inlining.WithLogger(logger)
}

// WithIterations sets how many times a measured workload runs per attempt.
func WithIterations(n int) MeasureOption {
	return gcprobe.WithIterations(n)
}

// WithMaxAttempts sets how many samples a measurement may take before it is
// reported failed.
func WithMaxAttempts(n int) MeasureOption {
	return gcprobe.WithMaxAttempts(n)
}

// WithCooldown sets the pause between failed measurement attempts.
func WithCooldown(d time.Duration) MeasureOption {
	return gcprobe.WithCooldown(d)
}

// WithMeasureLogger sets the structured logger for a measurement.
func WithMeasureLogger(logger *slog.Logger) MeasureOption {
	return gcprobe.WithLogger(logger)
}

// WithApartmentOptions forwards worker options to MeasurePumped's dedicated
// apartments. Measure ignores them.
func WithApartmentOptions(opts ...Option) MeasureOption {
	return gcprobe.WithApartmentOptions(opts...)
}
