// Package gcprobe measures heap pressure attributable to a workload: bytes
// allocated per iteration against a caller-supplied budget, and bytes still
// retained after a forced collection.
//
// Collector timing is non-deterministic under concurrent sweeping, so a
// measurement is "eventually observed" rather than "observed on attempt 1":
// up to maxAttempts samples are taken and the first passing one settles the
// verdict. A failed measurement reports the last sample's numbers.
package gcprobe

import (
	"fmt"
	"runtime"
	"time"

	"github.com/roach88/soloist/internal/apartment"
)

// Measure runs workload iterations times per attempt and checks the
// per-iteration heap deltas: allocated bytes against budget, retained bytes
// against zero. A synchronous workload that releases everything it
// allocates must show no growth once the collector has run.
//
// The first block of iterations is a warm-up, excluded from measurement, so
// lazy initialization inside the workload is not charged to it.
func Measure(workload func(), budget int64, opts ...Option) (Report, error) {
	if workload == nil {
		return Report{}, apartment.NewWorkloadError("nil workload", nil)
	}
	cfg := newConfig(opts)
	rep := Report{Budget: budget, Iterations: cfg.iterations}

	run := func() error {
		for i := 0; i < cfg.iterations; i++ {
			workload()
		}
		return nil
	}

	_ = run() // warm-up

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		s, err := takeSample(attempt, cfg.iterations, run, nil)
		if err != nil {
			return rep, err
		}
		rep.Samples = append(rep.Samples, s)
		cfg.logger.Debug("allocation sample",
			"attempt", attempt,
			"allocated_per_iter", s.Allocated,
			"retained_per_iter", s.Retained,
			"budget", budget,
		)

		if s.Allocated <= budget && s.Retained <= 0 {
			rep.Passed = true
			return rep, nil
		}
		coolDown(cfg.cooldown)
	}

	return rep, exhausted(rep)
}

// MeasurePumped measures an asynchronous workload the way RunToCompletion
// executes one: every iteration drives the workload to completion inside a
// pump frame on a dedicated apartment worker. The whole measurement,
// warm-up included, shares one worker so every sample sees the same thread
// state.
//
// Queued callbacks are drained between the mid and final readings so
// objects referenced only by not-yet-run continuations are not counted as
// retained. The retained threshold is looser than Measure's: per-iteration
// scheduling bookkeeping may legitimately survive a collection, so an
// attempt tolerates retained growth up to one byte per iteration short of
// the iteration count. A workload that truly accumulates state still fails
// every attempt.
func MeasurePumped(workload apartment.Workload, budget int64, opts ...Option) (Report, error) {
	if workload == nil {
		return Report{}, apartment.NewWorkloadError("nil workload", nil)
	}
	cfg := newConfig(opts)

	// A full measurement spans many driven runs; the worker's join bound
	// must cover all of them, not one. Caller options may still override.
	aopts := append([]apartment.Option{apartment.WithRunTimeout(pumpedRunBound)}, cfg.apartmentOpts...)

	// The report crosses back over the worker boundary through a channel so
	// a timed-out join never observes a half-written value.
	repC := make(chan Report, 1)

	err := apartment.Run(func(a *apartment.Apartment) error {
		p := a.Pump()
		rep := Report{Budget: budget, Iterations: cfg.iterations}
		defer func() { repC <- rep }()

		drive := func() error {
			f := p.NewFrame()
			c := workload(p)
			if c == nil {
				return apartment.NewWorkloadError("workload returned a nil completion", nil)
			}
			var failure error
			c.OnDone(func(err error) {
				failure = err
				f.Stop()
			})
			if err := p.Push(f); err != nil {
				return err
			}
			return failure
		}

		run := func() error {
			for i := 0; i < cfg.iterations; i++ {
				if err := drive(); err != nil {
					return err
				}
			}
			return nil
		}

		if err := run(); err != nil { // warm-up
			return err
		}

		for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
			s, err := takeSample(attempt, cfg.iterations, run, p.Drain)
			if err != nil {
				return err
			}
			rep.Samples = append(rep.Samples, s)
			cfg.logger.Debug("allocation sample",
				"attempt", attempt,
				"allocated_per_iter", s.Allocated,
				"retained_per_iter", s.Retained,
				"budget", budget,
			)

			if s.Allocated <= budget && s.Retained < int64(cfg.iterations) {
				rep.Passed = true
				return nil
			}
			coolDown(cfg.cooldown)
		}
		return exhausted(rep)
	}, aopts...)

	select {
	case rep := <-repC:
		return rep, err
	default:
		return Report{Budget: budget, Iterations: cfg.iterations}, err
	}
}

// takeSample measures one attempt. Nothing between the before and after
// readings logs or records on the probe's behalf, so the workload is not
// charged for probe bookkeeping.
func takeSample(attempt, iterations int, run func() error, drain func() error) (Sample, error) {
	var before, mid, after runtime.MemStats

	collect()
	runtime.ReadMemStats(&before)

	if err := run(); err != nil {
		return Sample{}, err
	}
	runtime.ReadMemStats(&mid)

	if drain != nil {
		if err := drain(); err != nil {
			return Sample{}, err
		}
	}
	collect()
	runtime.ReadMemStats(&after)

	n := int64(iterations)
	return Sample{
		Attempt:   attempt,
		Allocated: (int64(mid.HeapAlloc) - int64(before.HeapAlloc)) / n,
		Retained:  (int64(after.HeapAlloc) - int64(before.HeapAlloc)) / n,
	}, nil
}

// collect forces two full collection cycles; the second reclaims memory
// released by finalizers run during the first.
func collect() {
	runtime.GC()
	runtime.GC()
}

func coolDown(d time.Duration) {
	collect()
	time.Sleep(d)
}

func exhausted(rep Report) error {
	last, _ := rep.Last()
	return apartment.NewMeasurementError(fmt.Sprintf(
		"no passing sample in %d attempts: last allocated %d bytes/iter against budget %d, retained %d bytes/iter",
		len(rep.Samples), last.Allocated, rep.Budget, last.Retained))
}
