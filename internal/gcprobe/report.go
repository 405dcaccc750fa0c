package gcprobe

// Sample holds the readings of one measurement attempt. Byte figures are
// per workload iteration and may be negative when the collector reclaimed
// more than the run allocated.
type Sample struct {
	// Attempt numbers the sample, starting at 1.
	Attempt int `json:"attempt"`

	// Allocated is the heap growth per iteration, read before any forced
	// collection.
	Allocated int64 `json:"allocated_per_iteration"`

	// Retained is the heap growth per iteration that survived a forced
	// collection.
	Retained int64 `json:"retained_per_iteration"`
}

// Report is the outcome of a measurement: every sample taken, in attempt
// order, and the verdict. A failed measurement keeps all its samples so the
// caller can see what the probe saw.
type Report struct {
	Budget     int64    `json:"budget"`
	Iterations int      `json:"iterations"`
	Samples    []Sample `json:"samples"`
	Passed     bool     `json:"passed"`
}

// Last returns the most recent sample, false when no attempt completed.
func (r Report) Last() (Sample, bool) {
	if len(r.Samples) == 0 {
		return Sample{}, false
	}
	return r.Samples[len(r.Samples)-1], true
}
