package apartment

// Workload is an asynchronous operation under test. It is started on the
// apartment worker, receives the worker's pump for posting continuations,
// and returns the completion that settles when the operation finishes.
type Workload func(*Pump) *Completion

// RunToCompletion drives workload to completion on a fresh apartment,
// pumping posted continuations until the workload settles, then returns any
// captured failure to the caller with its identity preserved.
//
// This is the synchronous-wait-without-deadlock primitive: blocking the
// worker on the completion would deadlock, because the workload's
// continuations need that same worker to run. The worker pumps instead, and
// the completion's continuation is what stops the frame.
//
// A workload that never settles is converted into a timeout failure by the
// run bound (default DefaultRunTimeout); it never hangs the caller forever
// unless the bound was explicitly disabled.
func RunToCompletion(workload Workload, opts ...Option) error {
	if workload == nil {
		return NewWorkloadError("nil workload", nil)
	}

	return Run(func(a *Apartment) error {
		p := a.Pump()
		frame := p.NewFrame()

		c := workload(p)
		if c == nil {
			return NewWorkloadError("workload returned a nil completion", nil)
		}

		c.OnDone(func(err error) {
			a.fault.Set(err)
			frame.Stop()
		})

		return p.Push(frame)
	}, opts...)
}
